package cart

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func widget(stock int) Line {
	return Line{ProductID: 1001, Name: "widget", Price: 9.99, Image: "widget.png", Stock: stock}
}

// every transition must leave quantities inside [1, stock]
func assertInvariants(t *testing.T, s State) {
	t.Helper()
	seen := map[int64]bool{}
	for _, line := range s.Items {
		assert.GreaterOrEqual(t, line.Quantity, 1)
		assert.LessOrEqual(t, line.Quantity, line.Stock)
		assert.False(t, seen[line.ProductID], "duplicate line for product %d", line.ProductID)
		seen[line.ProductID] = true
	}
}

func TestAddNewLine(t *testing.T) {
	s := Reduce(State{}, Add{Line: widget(10), Quantity: 3})
	assert.Equal(t, 1, s.Count())
	line, found := s.Find(1001)
	assert.True(t, found)
	assert.Equal(t, 3, line.Quantity)
	assertInvariants(t, s)
}

func TestAddDefaultsToOne(t *testing.T) {
	s := Reduce(State{}, Add{Line: widget(10)})
	line, _ := s.Find(1001)
	assert.Equal(t, 1, line.Quantity)
}

func TestAddExistingLineIncrements(t *testing.T) {
	s := Reduce(State{}, Add{Line: widget(10), Quantity: 2})
	s = Reduce(s, Add{Line: widget(10), Quantity: 2})
	assert.Equal(t, 1, s.Count())
	line, _ := s.Find(1001)
	assert.Equal(t, 4, line.Quantity)
}

func TestAddClampsToStock(t *testing.T) {
	s := Reduce(State{}, Add{Line: widget(3), Quantity: 99})
	line, _ := s.Find(1001)
	assert.Equal(t, 3, line.Quantity)
	assertInvariants(t, s)
}

func TestAddOutOfStockIsNoop(t *testing.T) {
	s := Reduce(State{}, Add{Line: widget(0), Quantity: 1})
	assert.Equal(t, 0, s.Count())
}

func TestIncreaseStopsAtCeiling(t *testing.T) {
	s := Reduce(State{}, Add{Line: widget(3), Quantity: 2})
	s = Reduce(s, Increase{ProductID: 1001})
	line, _ := s.Find(1001)
	assert.Equal(t, 3, line.Quantity)

	// at the ceiling: further increases are no-ops, never errors
	s = Reduce(s, Increase{ProductID: 1001})
	line, _ = s.Find(1001)
	assert.Equal(t, 3, line.Quantity)
	assertInvariants(t, s)
}

func TestDecreaseRemovesBelowOne(t *testing.T) {
	s := Reduce(State{}, Add{Line: widget(10), Quantity: 2})
	s = Reduce(s, Decrease{ProductID: 1001})
	line, _ := s.Find(1001)
	assert.Equal(t, 1, line.Quantity)

	s = Reduce(s, Decrease{ProductID: 1001})
	_, found := s.Find(1001)
	assert.False(t, found)
}

func TestUpdateMergesFields(t *testing.T) {
	s := Reduce(State{}, Add{Line: widget(10), Quantity: 2})
	s = Reduce(s, Update{ProductID: 1001, Fields: map[string]interface{}{
		"quantity": 5,
		"price":    "12.50", // weakly typed input
	}})
	line, _ := s.Find(1001)
	assert.Equal(t, 5, line.Quantity)
	assert.Equal(t, 12.5, line.Price)
	assert.Equal(t, "widget", line.Name)
	assertInvariants(t, s)
}

func TestUpdateClampsQuantityToStock(t *testing.T) {
	s := Reduce(State{}, Add{Line: widget(3), Quantity: 1})
	s = Reduce(s, Update{ProductID: 1001, Fields: map[string]interface{}{"quantity": 50}})
	line, _ := s.Find(1001)
	assert.Equal(t, 3, line.Quantity)
}

func TestUpdateToZeroRemovesLine(t *testing.T) {
	s := Reduce(State{}, Add{Line: widget(10), Quantity: 2})
	s = Reduce(s, Update{ProductID: 1001, Fields: map[string]interface{}{"quantity": 0}})
	assert.Equal(t, 0, s.Count())
}

func TestUpdateCannotChangeProductID(t *testing.T) {
	s := Reduce(State{}, Add{Line: widget(10), Quantity: 1})
	s = Reduce(s, Update{ProductID: 1001, Fields: map[string]interface{}{"productId": 9999}})
	_, found := s.Find(1001)
	assert.True(t, found)
}

func TestUpdateUnknownLineIsNoop(t *testing.T) {
	s := Reduce(State{}, Add{Line: widget(10), Quantity: 1})
	next := Reduce(s, Update{ProductID: 4242, Fields: map[string]interface{}{"quantity": 5}})
	assert.Equal(t, s.Items, next.Items)
}

func TestRemoveAndClear(t *testing.T) {
	other := Line{ProductID: 2002, Name: "gadget", Price: 5, Stock: 5}
	s := Reduce(State{}, Add{Line: widget(10), Quantity: 1})
	s = Reduce(s, Add{Line: other, Quantity: 1})
	assert.Equal(t, 2, s.Count())

	s = Reduce(s, Remove{ProductID: 1001})
	assert.Equal(t, 1, s.Count())
	_, found := s.Find(2002)
	assert.True(t, found)

	s = Reduce(s, Clear{})
	assert.Equal(t, 0, s.Count())
}

func TestReduceDoesNotMutateInput(t *testing.T) {
	s := Reduce(State{}, Add{Line: widget(10), Quantity: 2})
	before := s.Items[0].Quantity

	_ = Reduce(s, Increase{ProductID: 1001})
	assert.Equal(t, before, s.Items[0].Quantity)

	_ = Reduce(s, Clear{})
	assert.Equal(t, 1, s.Count())
}
