package httpapi

import (
	"strconv"
	"strings"

	"github.com/dmitrijs2005/carmarket/internal/common"
	"github.com/dmitrijs2005/carmarket/internal/server/models"
	"github.com/dmitrijs2005/carmarket/internal/server/services"
	"github.com/gofiber/fiber/v2"
)

type listingRequest struct {
	services.ListingInput
	ImageCount int `json:"imageCount"`
}

// searchRequest mirrors the flat search form of the web client. Phone is a
// string there; blank fields are ignored.
type searchRequest struct {
	ID       string `json:"_id"`
	UserName string `json:"userName"`
	Title    string `json:"title"`
	Phone    string `json:"phone"`
	CarType  string `json:"carType"`
	Company  string `json:"company"`
	Model    string `json:"model"`
	Color    string `json:"color"`
	FuelType string `json:"fuelType"`
	Year     string `json:"year"`
}

func (r searchRequest) filter() (models.ListingFilter, error) {
	f := models.ListingFilter{
		ID:          r.ID,
		OwnerHandle: r.UserName,
		Title:       r.Title,
		Tags: models.Tags{
			CarType:  r.CarType,
			Company:  r.Company,
			Model:    r.Model,
			Color:    r.Color,
			FuelType: r.FuelType,
			Year:     r.Year,
		},
	}
	if p := strings.TrimSpace(r.Phone); p != "" {
		phone, err := strconv.ParseInt(p, 10, 64)
		if err != nil {
			return f, common.ErrValidation
		}
		f.Phone = phone
	}
	return f, nil
}

type globalSearchRequest struct {
	Query string `json:"query"`
}

func (s *Server) addCar(c *fiber.Ctx) error {
	var req listingRequest
	if err := c.BodyParser(&req); err != nil {
		return s.fail(c, common.ErrValidation)
	}

	listing, uploads, err := s.listings.Create(c.UserContext(), accountID(c), req.ListingInput, req.ImageCount)
	if err != nil {
		return s.fail(c, err)
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"message": "Car added successfully",
		"car":     listing,
		"uploads": uploads,
	})
}

func (s *Server) viewCars(c *fiber.Ctx) error {
	listings, err := s.listings.List(c.UserContext())
	if err != nil {
		return s.fail(c, err)
	}
	return c.JSON(listings)
}

func (s *Server) searchCars(c *fiber.Ctx) error {
	var req searchRequest
	if err := c.BodyParser(&req); err != nil {
		return s.fail(c, common.ErrValidation)
	}

	f, err := req.filter()
	if err != nil {
		return s.fail(c, err)
	}

	listings, err := s.listings.Search(c.UserContext(), f)
	if err != nil {
		return s.fail(c, err)
	}
	return c.JSON(listings)
}

func (s *Server) globalSearchCars(c *fiber.Ctx) error {
	var req globalSearchRequest
	if err := c.BodyParser(&req); err != nil {
		return s.fail(c, common.ErrValidation)
	}

	listings, err := s.listings.GlobalSearch(c.UserContext(), req.Query)
	if err != nil {
		return s.fail(c, err)
	}
	return c.JSON(listings)
}

func (s *Server) viewCar(c *fiber.Ctx) error {
	listing, err := s.listings.Get(c.UserContext(), c.Params("id"))
	if err != nil {
		return s.fail(c, err)
	}
	return c.JSON(listing)
}

func (s *Server) updateCar(c *fiber.Ctx) error {
	var req listingRequest
	if err := c.BodyParser(&req); err != nil {
		return s.fail(c, common.ErrValidation)
	}

	listing, uploads, err := s.listings.Update(c.UserContext(), accountID(c), c.Params("id"), req.ListingInput, req.ImageCount)
	if err != nil {
		return s.fail(c, err)
	}

	return c.JSON(fiber.Map{
		"message": "Car updated successfully",
		"car":     listing,
		"uploads": uploads,
	})
}

func (s *Server) deleteCar(c *fiber.Ctx) error {
	if err := s.listings.Delete(c.UserContext(), accountID(c), c.Params("id")); err != nil {
		return s.fail(c, err)
	}
	return c.JSON(fiber.Map{"message": "Car deleted successfully"})
}
