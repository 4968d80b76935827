package handler

import (
	"time"

	"github.com/hitoshi/quickcommerce/internal/model"
	"github.com/shopspring/decimal"
)

// 金額はdecimalの文字列表現（例: "199.90"）でシリアライズする。

// userResponse はユーザー情報のAPIレスポンス。パスワードハッシュは含めない。
type userResponse struct {
	ID             int64     `json:"id"`
	UserName       string    `json:"user_name"`
	Email          string    `json:"email"`
	ProfilePicture *string   `json:"profile_picture"`
	IsGoogleUser   bool      `json:"is_google_user"`
	AddressID      *int64    `json:"address_id"`
	CreatedAt      time.Time `json:"created_at"`
}

// sessionResponse はログイン成功時のAPIレスポンス。
type sessionResponse struct {
	Token     string       `json:"token"`
	ExpiresAt time.Time    `json:"expires_at"`
	User      userResponse `json:"user"`
}

// addressResponse は住所のAPIレスポンス。
type addressResponse struct {
	ID       int64  `json:"id"`
	UserID   *int64 `json:"user_id"`
	House    string `json:"house"`
	Street   string `json:"street"`
	Landmark string `json:"landmark"`
	City     string `json:"city"`
	State    string `json:"state"`
	Pincode  string `json:"pincode"`
	Phone    string `json:"phone"`
}

// categoryResponse はカテゴリのAPIレスポンス。
type categoryResponse struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

// productResponse は商品のAPIレスポンス。
type productResponse struct {
	ID           int64           `json:"id"`
	Name         string          `json:"name"`
	Price        decimal.Decimal `json:"price"`
	Image        string          `json:"image"`
	InStock      bool            `json:"in_stock"`
	CategoryID   int64           `json:"category_id"`
	CategoryName string          `json:"category_name,omitempty"`
}

// priceRangeResponse は価格帯のAPIレスポンス。
type priceRangeResponse struct {
	Min decimal.Decimal `json:"min"`
	Max decimal.Decimal `json:"max"`
}

// cartLineResponse はカート明細のAPIレスポンス。
type cartLineResponse struct {
	ID        int64            `json:"id"`
	ProductID int64            `json:"product_id"`
	Quantity  int              `json:"quantity"`
	AddedAt   time.Time        `json:"added_at"`
	Subtotal  decimal.Decimal  `json:"subtotal"`
	Product   *productResponse `json:"product,omitempty"`
}

// cartResponse はカート全体のAPIレスポンス。
type cartResponse struct {
	Items []cartLineResponse `json:"items"`
	Total decimal.Decimal    `json:"total"`
}

// orderItemResponse は注文明細のAPIレスポンス。
type orderItemResponse struct {
	ProductID   int64           `json:"product_id"`
	ProductName string          `json:"product_name"`
	Quantity    int             `json:"quantity"`
	PriceAtTime decimal.Decimal `json:"price_at_time"`
}

// orderResponse は注文のAPIレスポンス。
type orderResponse struct {
	ID          int64               `json:"id"`
	AddressID   int64               `json:"address_id"`
	TotalAmount decimal.Decimal     `json:"total_amount"`
	OrderDate   time.Time           `json:"order_date"`
	Items       []orderItemResponse `json:"items"`
}

// reviewResponse はレビューのAPIレスポンス。
type reviewResponse struct {
	ID        int64      `json:"id"`
	ProductID int64      `json:"product_id"`
	UserID    int64      `json:"user_id"`
	UserName  string     `json:"user_name"`
	Rating    int        `json:"rating"`
	Text      string     `json:"text"`
	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt *time.Time `json:"updated_at"`
}

func toUserResponse(u *model.User) userResponse {
	return userResponse{
		ID:             u.ID,
		UserName:       u.UserName,
		Email:          u.Email,
		ProfilePicture: u.ProfilePicture,
		IsGoogleUser:   u.IsGoogleUser,
		AddressID:      u.AddressID,
		CreatedAt:      u.CreatedAt,
	}
}

func toUserResponses(users []*model.User) []userResponse {
	out := make([]userResponse, 0, len(users))
	for _, u := range users {
		out = append(out, toUserResponse(u))
	}
	return out
}

func toSessionResponse(s *model.Session) sessionResponse {
	return sessionResponse{
		Token:     s.Token,
		ExpiresAt: s.ExpiresAt,
		User:      toUserResponse(s.User),
	}
}

func toAddressResponse(a *model.Address) addressResponse {
	return addressResponse{
		ID:       a.ID,
		UserID:   a.UserID,
		House:    a.House,
		Street:   a.Street,
		Landmark: a.Landmark,
		City:     a.City,
		State:    a.State,
		Pincode:  a.Pincode,
		Phone:    a.Phone,
	}
}

func toCategoryResponses(categories []*model.Category) []categoryResponse {
	out := make([]categoryResponse, 0, len(categories))
	for _, c := range categories {
		out = append(out, categoryResponse{ID: c.ID, Name: c.Name})
	}
	return out
}

func toProductResponse(p *model.Product) productResponse {
	return productResponse{
		ID:           p.ID,
		Name:         p.Name,
		Price:        p.Price,
		Image:        p.Image,
		InStock:      p.InStock,
		CategoryID:   p.CategoryID,
		CategoryName: p.CategoryName,
	}
}

func toProductResponses(products []*model.Product) []productResponse {
	out := make([]productResponse, 0, len(products))
	for _, p := range products {
		out = append(out, toProductResponse(p))
	}
	return out
}

func toCartLineResponse(l *model.CartLine) cartLineResponse {
	resp := cartLineResponse{
		ID:        l.ID,
		ProductID: l.ProductID,
		Quantity:  l.Quantity,
		AddedAt:   l.AddedAt,
		Subtotal:  l.Subtotal(),
	}
	if l.Product != nil {
		p := toProductResponse(l.Product)
		resp.Product = &p
	}
	return resp
}

func toCartResponse(c *model.Cart) cartResponse {
	items := make([]cartLineResponse, 0, len(c.Lines))
	for _, l := range c.Lines {
		items = append(items, toCartLineResponse(l))
	}
	return cartResponse{Items: items, Total: c.Total}
}

func toOrderResponses(orders []*model.Order) []orderResponse {
	out := make([]orderResponse, 0, len(orders))
	for _, o := range orders {
		items := make([]orderItemResponse, 0, len(o.Items))
		for _, it := range o.Items {
			items = append(items, orderItemResponse{
				ProductID:   it.ProductID,
				ProductName: it.ProductName,
				Quantity:    it.Quantity,
				PriceAtTime: it.PriceAtTime,
			})
		}
		out = append(out, orderResponse{
			ID:          o.ID,
			AddressID:   o.AddressID,
			TotalAmount: o.TotalAmount,
			OrderDate:   o.OrderDate,
			Items:       items,
		})
	}
	return out
}

func toReviewResponse(r *model.Review) reviewResponse {
	return reviewResponse{
		ID:        r.ID,
		ProductID: r.ProductID,
		UserID:    r.UserID,
		UserName:  r.UserName,
		Rating:    r.Rating,
		Text:      r.Text,
		CreatedAt: r.CreatedAt,
		UpdatedAt: r.UpdatedAt,
	}
}

func toReviewResponses(reviews []*model.Review) []reviewResponse {
	out := make([]reviewResponse, 0, len(reviews))
	for _, r := range reviews {
		out = append(out, toReviewResponse(r))
	}
	return out
}
