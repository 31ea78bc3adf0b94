package httpapi

import (
	"errors"

	"github.com/dmitrijs2005/carmarket/internal/common"
	"github.com/dmitrijs2005/carmarket/internal/server/services"
	"github.com/gofiber/fiber/v2"
)

type signupRequest struct {
	Name     string `json:"name"`
	UserName string `json:"userName"`
	Email    string `json:"email"`
	Password string `json:"password"`
	Phone    int64  `json:"phone"`
}

type loginRequest struct {
	UserName string `json:"userName"`
	Password string `json:"password"`
}

// failAccount reports an unknown account as a bad request rather than 404,
// which is what signup and login clients expect.
func (s *Server) failAccount(c *fiber.Ctx, err error) error {
	if errors.Is(err, common.ErrNotFound) {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "account not found"})
	}
	return s.fail(c, err)
}

func (s *Server) signup(c *fiber.Ctx) error {
	var req signupRequest
	if err := c.BodyParser(&req); err != nil {
		return s.fail(c, common.ErrValidation)
	}

	account, err := s.accounts.Register(c.UserContext(), services.RegisterInput{
		DisplayName: req.Name,
		Handle:      req.UserName,
		Email:       req.Email,
		Password:    req.Password,
		Phone:       req.Phone,
	})
	if err != nil {
		return s.failAccount(c, err)
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"message": "User created successfully",
		"account": account,
	})
}

func (s *Server) login(c *fiber.Ctx) error {
	var req loginRequest
	if err := c.BodyParser(&req); err != nil {
		return s.fail(c, common.ErrValidation)
	}

	res, err := s.accounts.Login(c.UserContext(), services.LoginInput{
		Handle:   req.UserName,
		Password: req.Password,
	})
	if err != nil {
		return s.failAccount(c, err)
	}

	return c.JSON(fiber.Map{
		"message": "Login successful",
		"token":   res.Token,
		"account": res.Account,
	})
}

func (s *Server) viewUsers(c *fiber.Ctx) error {
	accounts, err := s.accounts.List(c.UserContext())
	if err != nil {
		return s.fail(c, err)
	}
	return c.JSON(accounts)
}

func (s *Server) me(c *fiber.Ctx) error {
	account, err := s.accounts.Account(c.UserContext(), accountID(c))
	if err != nil {
		if errors.Is(err, common.ErrNotFound) {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "account no longer exists"})
		}
		return s.fail(c, err)
	}
	return c.JSON(account)
}
