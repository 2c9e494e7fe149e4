// Package account holds user accounts: credentials, role, cart and
// profile data.
package account

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Role is the closed set of account roles.
type Role string

const (
	RoleBuyer  Role = "Buyer"
	RoleFarmer Role = "Farmer"
	RoleAdmin  Role = "Admin"
)

// IsValid reports whether the role is one of the known values.
func (r Role) IsValid() bool {
	switch r {
	case RoleBuyer, RoleFarmer, RoleAdmin:
		return true
	}
	return false
}

// CartItem references a product with an ordered quantity.
// Product references are unique within a cart.
type CartItem struct {
	ProductID primitive.ObjectID `bson:"product" json:"productId"`
	Qty       int32              `bson:"qty" json:"qty"`
}

// StructuredAddress is the optional structured form of an account address.
type StructuredAddress struct {
	Line1   string `bson:"line1,omitempty" json:"line1,omitempty"`
	Line2   string `bson:"line2,omitempty" json:"line2,omitempty"`
	City    string `bson:"city,omitempty" json:"city,omitempty"`
	State   string `bson:"state,omitempty" json:"state,omitempty"`
	Pincode string `bson:"pincode,omitempty" json:"pincode,omitempty"`
	Country string `bson:"country,omitempty" json:"country,omitempty"`
}

// BankDetails is payout information, meaningful only for Farmer accounts.
type BankDetails struct {
	AccountName   string `bson:"accountName,omitempty" json:"accountName,omitempty"`
	AccountNumber string `bson:"accountNumber,omitempty" json:"accountNumber,omitempty"`
	IFSC          string `bson:"ifsc,omitempty" json:"ifsc,omitempty"`
	BankName      string `bson:"bankName,omitempty" json:"bankName,omitempty"`
	UPI           string `bson:"upi,omitempty" json:"upi,omitempty"`
}

// Account is a registered user document. PasswordHash and the security
// answer hash never leave the package in API responses.
type Account struct {
	ID               primitive.ObjectID `bson:"_id,omitempty"`
	Name             string             `bson:"name"`
	Email            string             `bson:"email"`
	PasswordHash     string             `bson:"password"`
	Role             Role               `bson:"role"`
	Blocked          bool               `bson:"isBlocked"`
	MobileNo         string             `bson:"mobileNo,omitempty"`
	FarmName         string             `bson:"farmName,omitempty"`
	Address          string             `bson:"address,omitempty"`
	Structured       *StructuredAddress `bson:"structuredAddress,omitempty"`
	BankDetails      *BankDetails       `bson:"bankDetails,omitempty"`
	SecurityQuestion string             `bson:"securityQuestion,omitempty"`
	SecurityAnswer   string             `bson:"securityAnswer,omitempty"`
	ResetToken       string             `bson:"resetToken,omitempty"`
	ResetTokenExpiry time.Time          `bson:"resetTokenExpiry,omitempty"`
	Cart             []CartItem         `bson:"cart"`
	CreatedAt        time.Time          `bson:"createdAt"`
	UpdatedAt        time.Time          `bson:"updatedAt"`
}
