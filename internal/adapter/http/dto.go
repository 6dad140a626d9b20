package http

import (
	"time"

	"github.com/shopspring/decimal"

	domain "github.com/thaijunny/fashion-be/internal/entity"
	"github.com/thaijunny/fashion-be/internal/usecase"
)

func init() {
	// prices render as JSON numbers
	decimal.MarshalJSONWithoutQuotes = true
}

type orderItemResp struct {
	ID        string          `json:"id"`
	OrderID   string          `json:"order_id"`
	ProjectID string          `json:"project_id,omitempty"`
	ProductID string          `json:"product_id,omitempty"`
	Size      string          `json:"size,omitempty"`
	Color     string          `json:"color,omitempty"`
	Material  string          `json:"material,omitempty"`
	Quantity  int             `json:"quantity"`
	UnitPrice decimal.Decimal `json:"unit_price"`
}

type orderResp struct {
	ID              string          `json:"id"`
	UserID          string          `json:"user_id"`
	TotalAmount     decimal.Decimal `json:"total_amount"`
	Status          string          `json:"status"`
	ShippingAddress string          `json:"shipping_address"`
	FullName        string          `json:"full_name"`
	PhoneNumber     string          `json:"phone_number"`
	PaymentMethod   string          `json:"payment_method"`
	CreatedAt       time.Time       `json:"created_at"`
	Items           []orderItemResp `json:"items"`
}

func toOrderResp(o domain.Order) orderResp {
	out := orderResp{
		ID:              o.ID,
		UserID:          o.UserID,
		TotalAmount:     o.TotalAmount,
		Status:          string(o.Status),
		ShippingAddress: o.ShippingAddress,
		FullName:        o.FullName,
		PhoneNumber:     o.PhoneNumber,
		PaymentMethod:   string(o.PaymentMethod),
		CreatedAt:       o.CreatedAt,
		Items:           make([]orderItemResp, 0, len(o.Items)),
	}
	for _, it := range o.Items {
		out.Items = append(out.Items, orderItemResp{
			ID:        it.ID,
			OrderID:   it.OrderID,
			ProjectID: it.ProjectID,
			ProductID: it.ProductID,
			Size:      it.Size,
			Color:     it.Color,
			Material:  it.Material,
			Quantity:  it.Quantity,
			UnitPrice: it.UnitPrice,
		})
	}
	return out
}

func toOrderList(orders []domain.Order) []orderResp {
	out := make([]orderResp, 0, len(orders))
	for _, o := range orders {
		out = append(out, toOrderResp(o))
	}
	return out
}

type productResp struct {
	ID       string          `json:"id"`
	Name     string          `json:"name"`
	Price    decimal.Decimal `json:"price"`
	Images   []string        `json:"images"`
	Category string          `json:"category,omitempty"`
}

type cartItemResp struct {
	ID        string          `json:"id"`
	Quantity  int             `json:"quantity"`
	Size      string          `json:"size,omitempty"`
	Color     string          `json:"color,omitempty"`
	Material  string          `json:"material,omitempty"`
	ProjectID string          `json:"project_id,omitempty"`
	UnitPrice decimal.Decimal `json:"unit_price"`
	Product   *productResp    `json:"product"`
}

func toCartItemResp(l domain.CartLine) cartItemResp {
	out := cartItemResp{
		ID:        l.ID,
		Quantity:  l.Quantity,
		Size:      l.Size,
		Color:     l.Color,
		Material:  l.Material,
		ProjectID: l.ProjectID,
		UnitPrice: l.UnitPrice(),
	}
	if p := l.Product; p != nil {
		images := p.Images
		if images == nil {
			images = []string{}
		}
		out.Product = &productResp{ID: p.ID, Name: p.Name, Price: p.Price, Images: images, Category: p.Category}
	}
	return out
}

type cartResp struct {
	Items     []cartItemResp  `json:"items"`
	Total     decimal.Decimal `json:"total"`
	ItemCount int             `json:"itemCount"`
}

func toCartResp(v usecase.CartView) cartResp {
	out := cartResp{Items: make([]cartItemResp, 0, len(v.Lines)), Total: v.Total, ItemCount: v.ItemCount}
	for _, l := range v.Lines {
		out.Items = append(out.Items, toCartItemResp(l))
	}
	return out
}

type userResp struct {
	ID        string `json:"id"`
	Email     string `json:"email"`
	FullName  string `json:"full_name"`
	AvatarURL string `json:"avatar_url,omitempty"`
	Role      string `json:"role"`
}

func toUserResp(u *domain.User) userResp {
	return userResp{ID: u.ID, Email: u.Email, FullName: u.FullName, AvatarURL: u.AvatarURL, Role: string(u.Role)}
}
