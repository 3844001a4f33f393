package model

// All lists every table in migration order.
func All() []any {
	return []any{
		&FormConfiguration{},
		&Question{},
		&EventConfiguration{},
		&Event{},
		&FormLoadHistory{},
		&KVEntry{},
	}
}
