package auth

import (
	"errors"
	"net/http"
	"testing"

	"github.com/gofiber/fiber/v2"

	"pos-backend/internal/engine"
)

const testSecret = "test-secret"

func TestAccessToken_RoundTrip(t *testing.T) {
	token, err := GenerateAccessToken("user-123", testSecret)
	if err != nil {
		t.Fatalf("generate: %v", err)
	}

	claims, err := ParseAccessToken(token, testSecret)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if claims.Subject != "user-123" {
		t.Fatalf("subject = %s", claims.Subject)
	}
	if claims.ExpiresAt == nil || !claims.ExpiresAt.After(claims.IssuedAt.Time) {
		t.Fatal("expiry must be after issue time")
	}
}

func TestAccessToken_WrongSecretRejected(t *testing.T) {
	token, err := GenerateAccessToken("user-123", testSecret)
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	if _, err := ParseAccessToken(token, "other-secret"); err == nil {
		t.Fatal("token signed with a different secret must not parse")
	}
}

func TestAccessToken_GarbageRejected(t *testing.T) {
	if _, err := ParseAccessToken("not.a.jwt", testSecret); err == nil {
		t.Fatal("garbage token must not parse")
	}
}

func TestPasswordHashing(t *testing.T) {
	hash, err := HashPassword("s3cret-pass")
	if err != nil {
		t.Fatalf("hash: %v", err)
	}
	if hash == "s3cret-pass" {
		t.Fatal("password stored in plaintext")
	}
	if !CheckPassword("s3cret-pass", hash) {
		t.Fatal("correct password rejected")
	}
	if CheckPassword("wrong-pass", hash) {
		t.Fatal("wrong password accepted")
	}
}

func TestGenerateRefreshToken_Unique(t *testing.T) {
	if GenerateRefreshToken() == GenerateRefreshToken() {
		t.Fatal("refresh tokens must be unique")
	}
}

func middlewareApp() *fiber.App {
	app := fiber.New(fiber.Config{
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			var appErr *engine.AppError
			if errors.As(err, &appErr) {
				return c.Status(appErr.Status).JSON(engine.ErrorResponse{Error: appErr})
			}
			return c.SendStatus(500)
		},
	})
	app.Get("/protected", Middleware(testSecret), func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"caller": c.Locals("caller_id")})
	})
	return app
}

func TestMiddleware_MissingHeader(t *testing.T) {
	app := middlewareApp()
	req, _ := http.NewRequest("GET", "/protected", nil)
	resp, err := app.Test(req, -1)
	if err != nil {
		t.Fatalf("request: %v", err)
	}
	if resp.StatusCode != 401 {
		t.Fatalf("status = %d", resp.StatusCode)
	}
}

func TestMiddleware_ValidToken(t *testing.T) {
	app := middlewareApp()
	token, err := GenerateAccessToken("user-42", testSecret)
	if err != nil {
		t.Fatalf("generate: %v", err)
	}

	req, _ := http.NewRequest("GET", "/protected", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	resp, err := app.Test(req, -1)
	if err != nil {
		t.Fatalf("request: %v", err)
	}
	if resp.StatusCode != 200 {
		t.Fatalf("status = %d", resp.StatusCode)
	}
}

func TestMiddleware_BadSchemeAndBadToken(t *testing.T) {
	app := middlewareApp()

	for _, header := range []string{"Basic abc123", "Bearer bogus-token"} {
		req, _ := http.NewRequest("GET", "/protected", nil)
		req.Header.Set("Authorization", header)
		resp, err := app.Test(req, -1)
		if err != nil {
			t.Fatalf("request: %v", err)
		}
		if resp.StatusCode == 200 {
			t.Fatalf("header %q passed the middleware", header)
		}
	}
}
