package domain

var Tables = []interface{}{
	// System
	&SysConfig{},
	// Store
	&User{},
	&Product{},
	&Order{},
	&OrderItem{},
}
