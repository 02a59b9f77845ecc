package models

import "testing"

func TestDeriveStatus(t *testing.T) {
	cases := []struct {
		name  string
		items []OrderItem
		want  string
	}{
		{"no lines", nil, OrderStatusPending},
		{"nothing received", []OrderItem{{QtyOrdered: 3}, {QtyOrdered: 2}}, OrderStatusPending},
		{"one line partly received", []OrderItem{{QtyOrdered: 3, QtyReceived: 1}, {QtyOrdered: 2}}, OrderStatusPartial},
		{"one line full, one empty", []OrderItem{{QtyOrdered: 3, QtyReceived: 3}, {QtyOrdered: 2}}, OrderStatusPartial},
		{"all lines full", []OrderItem{{QtyOrdered: 3, QtyReceived: 3}, {QtyOrdered: 2, QtyReceived: 2}}, OrderStatusReceived},
	}
	for _, c := range cases {
		o := Order{Items: c.items}
		if got := o.DeriveStatus(); got != c.want {
			t.Errorf("%s: DeriveStatus() = %q, want %q", c.name, got, c.want)
		}
	}
}

func TestOutstanding(t *testing.T) {
	if got := (OrderItem{QtyOrdered: 5, QtyReceived: 2}).Outstanding(); got != 3 {
		t.Errorf("Outstanding = %d, want 3", got)
	}
	// Over-received data must floor at zero, never go negative.
	if got := (OrderItem{QtyOrdered: 2, QtyReceived: 5}).Outstanding(); got != 0 {
		t.Errorf("Outstanding = %d, want 0", got)
	}
}
