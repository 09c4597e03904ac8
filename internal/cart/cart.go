package cart

import (
	"github.com/mitchellh/mapstructure"
)

// Line is one product-plus-quantity entry. Stock is the ceiling captured
// when the product was added, quantity always stays within [1, Stock].
type Line struct {
	ProductID int64   `json:"productId,string" mapstructure:"-"`
	Name      string  `json:"name" mapstructure:"name"`
	Price     float64 `json:"price" mapstructure:"price"`
	Image     string  `json:"image" mapstructure:"image"`
	Stock     int     `json:"stock" mapstructure:"stock"`
	Quantity  int     `json:"quantity" mapstructure:"quantity"`
}

// State is the full line-item collection owned by a single session
type State struct {
	Items []Line `json:"items"`
}

// Action is the closed set of cart transitions
type Action interface {
	isCartAction()
}

// Add inserts a new line or increments an existing one, clamped to stock
type Add struct {
	Line     Line
	Quantity int // requested amount, 0 means 1
}

// Increase bumps a single line by one, no-op at the stock ceiling
type Increase struct {
	ProductID int64
}

// Decrease lowers a single line by one, removing it below one
type Decrease struct {
	ProductID int64
}

// Update merges arbitrary fields onto an existing line. Quantity is clamped
// inside the reducer, a merge to quantity <= 0 removes the line.
type Update struct {
	ProductID int64
	Fields    map[string]interface{}
}

// Remove deletes a line unconditionally by product id
type Remove struct {
	ProductID int64
}

// Clear resets to the empty collection
type Clear struct{}

func (Add) isCartAction()      {}
func (Increase) isCartAction() {}
func (Decrease) isCartAction() {}
func (Update) isCartAction()   {}
func (Remove) isCartAction()   {}
func (Clear) isCartAction()    {}

// Reduce applies one action and returns the next state. The input state is
// never mutated. After every transition each line holds 1 <= quantity <= stock
// and no zero-quantity line is retained.
func Reduce(state State, action Action) State {
	switch a := action.(type) {
	case Add:
		return reduceAdd(state, a)
	case Increase:
		return mapLines(state, func(line Line) (Line, bool) {
			if line.ProductID == a.ProductID && line.Quantity < line.Stock {
				line.Quantity++
			}
			return line, true
		})
	case Decrease:
		return mapLines(state, func(line Line) (Line, bool) {
			if line.ProductID == a.ProductID {
				line.Quantity--
			}
			return line, line.Quantity > 0
		})
	case Update:
		return mapLines(state, func(line Line) (Line, bool) {
			if line.ProductID != a.ProductID {
				return line, true
			}
			merged := mergeLine(line, a.Fields)
			if merged.Quantity < 1 {
				return merged, false
			}
			if merged.Quantity > merged.Stock {
				merged.Quantity = merged.Stock
			}
			return merged, merged.Stock > 0
		})
	case Remove:
		return mapLines(state, func(line Line) (Line, bool) {
			return line, line.ProductID != a.ProductID
		})
	case Clear:
		return State{}
	default:
		return state
	}
}

func reduceAdd(state State, a Add) State {
	requested := a.Quantity
	if requested < 1 {
		requested = 1
	}

	for i, line := range state.Items {
		if line.ProductID != a.Line.ProductID {
			continue
		}
		// existing line: increment, clamped to stock
		next := cloneItems(state)
		line.Quantity += requested
		if line.Quantity > line.Stock {
			line.Quantity = line.Stock
		}
		next.Items[i] = line
		return next
	}

	newLine := a.Line
	newLine.Quantity = requested
	if newLine.Quantity > newLine.Stock {
		newLine.Quantity = newLine.Stock
	}
	if newLine.Quantity < 1 {
		// out of stock, nothing to add
		return state
	}
	next := cloneItems(state)
	next.Items = append(next.Items, newLine)
	return next
}

// mapLines rebuilds the collection, dropping lines for which keep is false
func mapLines(state State, fn func(Line) (Line, bool)) State {
	items := make([]Line, 0, len(state.Items))
	for _, line := range state.Items {
		if mapped, keep := fn(line); keep {
			items = append(items, mapped)
		}
	}
	return State{Items: items}
}

func cloneItems(state State) State {
	items := make([]Line, len(state.Items))
	copy(items, state.Items)
	return State{Items: items}
}

// mergeLine decodes the update payload onto a copy of the line. The product
// id is not mergeable, unknown keys are ignored.
func mergeLine(line Line, fields map[string]interface{}) Line {
	merged := line
	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:           &merged,
		WeaklyTypedInput: true,
	})
	if err != nil {
		return line
	}
	if err := decoder.Decode(fields); err != nil {
		return line
	}
	merged.ProductID = line.ProductID
	return merged
}

// Find returns the line for a product id, if present
func (s State) Find(productID int64) (Line, bool) {
	for _, line := range s.Items {
		if line.ProductID == productID {
			return line, true
		}
	}
	return Line{}, false
}

// Count returns the number of distinct lines
func (s State) Count() int {
	return len(s.Items)
}
