package api

import "time"

type SignupRequest struct {
	Name     string `json:"name"`
	UserName string `json:"userName"`
	Email    string `json:"email"`
	Password string `json:"password"`
	Phone    int64  `json:"phone"`
}

type Account struct {
	ID          string    `json:"id"`
	DisplayName string    `json:"displayName"`
	Handle      string    `json:"handle"`
	Email       string    `json:"email"`
	Phone       int64     `json:"phone"`
	CreatedAt   time.Time `json:"createdAt"`
}

type LoginResponse struct {
	Message string   `json:"message"`
	Token   string   `json:"token"`
	Account *Account `json:"account"`
}

type Tags struct {
	CarType  string `json:"carType"`
	Company  string `json:"company"`
	Model    string `json:"model"`
	Color    string `json:"color"`
	FuelType string `json:"fuelType"`
	Year     string `json:"year"`
}

type CarRequest struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	Phone       int64  `json:"phone"`
	Tags        Tags   `json:"tags"`
	ImageCount  int    `json:"imageCount"`
}

type Car struct {
	ID          string `json:"id"`
	OwnerHandle string `json:"ownerHandle"`
	Title       string `json:"title"`
	Description string `json:"description"`
	Phone       int64  `json:"phone"`
	Tags        Tags   `json:"tags"`
}

// UploadTask is a presigned PUT URL for one image slot of a listing.
type UploadTask struct {
	Key string `json:"key"`
	URL string `json:"url"`
}

type AddCarResponse struct {
	Message string       `json:"message"`
	Car     *Car         `json:"car"`
	Uploads []UploadTask `json:"uploads"`
}
