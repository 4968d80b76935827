package model

import "time"

// Review は商品レビューを表す。ユーザーは1商品につき1件のみ投稿できる。
type Review struct {
	ID        int64
	ProductID int64
	UserID    int64
	UserName  string
	Rating    int
	Text      string
	CreatedAt time.Time
	UpdatedAt *time.Time
}
