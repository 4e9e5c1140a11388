package models

import "fmt"

type Activity struct {
	ID     string `json:"id" yaml:"id"`
	Label  string `json:"label" yaml:"label"`
	Prefix string `json:"prefix" yaml:"prefix"`
	Icon   string `json:"icon" yaml:"icon"`
}

// FormatTicket renders a ticket number the way it is shown to customers,
// e.g. "F007" for ticket 7 of an activity with prefix "F".
func (a Activity) FormatTicket(number int) string {
	return fmt.Sprintf("%s%03d", a.Prefix, number)
}
