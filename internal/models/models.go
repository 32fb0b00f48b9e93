package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

const (
	RoleUser  = "user"
	RoleAdmin = "admin"
)

type OrderStatus string

const (
	OrderPending    OrderStatus = "pending"
	OrderCapturing  OrderStatus = "capturing"
	OrderConfirmed  OrderStatus = "confirmed"
	OrderFailed     OrderStatus = "failed"
	OrderInProcess  OrderStatus = "inProcess"
	OrderInShipping OrderStatus = "inShipping"
	OrderDelivered  OrderStatus = "delivered"
	OrderRejected   OrderStatus = "rejected"
)

type PaymentStatus string

const (
	PaymentPending PaymentStatus = "pending"
	PaymentPaid    PaymentStatus = "paid"
)

type User struct {
	ID           uuid.UUID `gorm:"type:uuid;primaryKey"     json:"id"`
	UserName     string    `gorm:"not null"                 json:"userName"`
	Email        string    `gorm:"uniqueIndex;not null"     json:"email"`
	PasswordHash string    `gorm:"not null"                 json:"-"`
	Role         string    `gorm:"not null;default:user"    json:"role"`
	CreatedAt    time.Time `json:"createdAt"`
}

type Product struct {
	ID            uuid.UUID `gorm:"type:uuid;primaryKey"          json:"id"`
	Image         string    `json:"image"`
	Title         string    `gorm:"not null;index"                json:"title"`
	Description   string    `json:"description"`
	Category      string    `gorm:"index"                         json:"category"`
	Brand         string    `gorm:"index"                         json:"brand"`
	Price         float64   `gorm:"not null;default:0"            json:"price"`
	SalePrice     float64   `gorm:"not null;default:0"            json:"salePrice"`
	TotalStock    int       `gorm:"not null;default:0;check:chk_products_total_stock,total_stock >= 0" json:"totalStock"`
	AverageReview float64   `gorm:"not null;default:0"            json:"averageReview"`
	ReviewCount   int64     `gorm:"not null;default:0"            json:"-"`
	ReviewSum     float64   `gorm:"not null;default:0"            json:"-"`
	CreatedAt     time.Time `json:"createdAt"`
	UpdatedAt     time.Time `json:"updatedAt"`
}

type Cart struct {
	ID        uuid.UUID  `gorm:"type:uuid;primaryKey"         json:"id"`
	UserID    uuid.UUID  `gorm:"type:uuid;uniqueIndex;not null" json:"userId"`
	Items     []CartItem `gorm:"constraint:OnDelete:CASCADE"  json:"items"`
	CreatedAt time.Time  `json:"createdAt"`
	UpdatedAt time.Time  `json:"updatedAt"`
}

type CartItem struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey"                           json:"-"`
	CartID    uuid.UUID `gorm:"type:uuid;uniqueIndex:idx_cart_product;not null" json:"-"`
	ProductID uuid.UUID `gorm:"type:uuid;uniqueIndex:idx_cart_product;not null" json:"productId"`
	Quantity  int       `gorm:"not null;check:chk_cart_items_quantity,quantity > 0" json:"quantity"`
	CreatedAt time.Time `json:"-"`
}

// AddressInfo is the delivery address copied into an order.
type AddressInfo struct {
	AddressID string `json:"addressId"`
	Address   string `json:"address"`
	City      string `json:"city"`
	Pincode   string `json:"pincode"`
	Phone     string `json:"phone"`
	Notes     string `json:"notes"`
}

type Order struct {
	ID              uuid.UUID     `gorm:"type:uuid;primaryKey"          json:"id"`
	UserID          uuid.UUID     `gorm:"type:uuid;index;not null"      json:"userId"`
	CartID          uuid.UUID     `gorm:"type:uuid;index"               json:"cartId"`
	CartItems       []OrderItem   `gorm:"constraint:OnDelete:CASCADE"   json:"cartItems"`
	AddressInfo     AddressInfo   `gorm:"embedded;embeddedPrefix:address_" json:"addressInfo"`
	OrderStatus     OrderStatus   `gorm:"not null;index"                json:"orderStatus"`
	PaymentMethod   string        `json:"paymentMethod"`
	PaymentStatus   PaymentStatus `gorm:"not null"                      json:"paymentStatus"`
	TotalAmount     float64       `gorm:"not null"                      json:"totalAmount"`
	PaymentID       string        `gorm:"index"                         json:"paymentId"`
	PayerID         string        `json:"payerId"`
	OrderDate       time.Time     `gorm:"not null"                      json:"orderDate"`
	OrderUpdateDate time.Time     `gorm:"not null"                      json:"orderUpdateDate"`
}

type OrderItem struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey"      json:"-"`
	OrderID   uuid.UUID `gorm:"type:uuid;index;not null"  json:"-"`
	Position  int       `gorm:"not null"                  json:"-"`
	ProductID uuid.UUID `gorm:"type:uuid;index;not null"  json:"productId"`
	Title     string    `json:"title"`
	Image     string    `json:"image"`
	Price     float64   `gorm:"not null"                  json:"price"`
	Quantity  int       `gorm:"not null"                  json:"quantity"`
}

type Address struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey"     json:"id"`
	UserID    uuid.UUID `gorm:"type:uuid;index;not null" json:"userId"`
	Address   string    `gorm:"not null"                 json:"address"`
	City      string    `gorm:"not null"                 json:"city"`
	Pincode   string    `gorm:"not null"                 json:"pincode"`
	Phone     string    `gorm:"not null"                 json:"phone"`
	Notes     string    `gorm:"not null"                 json:"notes"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

type Review struct {
	ID            uuid.UUID `gorm:"type:uuid;primaryKey"                              json:"id"`
	ProductID     uuid.UUID `gorm:"type:uuid;uniqueIndex:idx_review_product_user;not null" json:"productId"`
	UserID        uuid.UUID `gorm:"type:uuid;uniqueIndex:idx_review_product_user;not null" json:"userId"`
	UserName      string    `json:"userName"`
	ReviewMessage string    `json:"reviewMessage"`
	ReviewValue   int       `gorm:"not null"                                          json:"reviewValue"`
	CreatedAt     time.Time `json:"createdAt"`
}

type FeatureImage struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	Image     string    `gorm:"not null"             json:"image"`
	CreatedAt time.Time `json:"createdAt"`
}

func newID(id *uuid.UUID) {
	if *id == uuid.Nil {
		*id = uuid.New()
	}
}

func (u *User) BeforeCreate(*gorm.DB) error         { newID(&u.ID); return nil }
func (p *Product) BeforeCreate(*gorm.DB) error      { newID(&p.ID); return nil }
func (c *Cart) BeforeCreate(*gorm.DB) error         { newID(&c.ID); return nil }
func (i *CartItem) BeforeCreate(*gorm.DB) error     { newID(&i.ID); return nil }
func (o *Order) BeforeCreate(*gorm.DB) error        { newID(&o.ID); return nil }
func (i *OrderItem) BeforeCreate(*gorm.DB) error    { newID(&i.ID); return nil }
func (a *Address) BeforeCreate(*gorm.DB) error      { newID(&a.ID); return nil }
func (r *Review) BeforeCreate(*gorm.DB) error       { newID(&r.ID); return nil }
func (f *FeatureImage) BeforeCreate(*gorm.DB) error { newID(&f.ID); return nil }

// All lists every table for AutoMigrate, parents first.
func All() []any {
	return []any{
		&User{},
		&Product{},
		&Cart{},
		&CartItem{},
		&Order{},
		&OrderItem{},
		&Address{},
		&Review{},
		&FeatureImage{},
	}
}
