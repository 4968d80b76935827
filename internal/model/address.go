package model

// Address は配送先住所を表す。ユーザーごとに最大1件。
type Address struct {
	ID       int64
	UserID   *int64
	House    string
	Street   string
	Landmark string
	City     string
	State    string
	Pincode  string
	Phone    string
}
