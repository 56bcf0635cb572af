package middleware

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"campusshop/internal/config"

	"github.com/golang-jwt/jwt/v4"
	"github.com/labstack/echo/v4"
)

const (
	CtxUserIDKey   = "user_id"   // string
	CtxUserRoleKey = "user_role" // string
)

const (
	RoleUser  = "USER"
	RoleAdmin = "ADMIN"
)

var errInvalidToken = errors.New("invalid token")

// AuthJWT はbearerトークンから利用者IDとroleを取り出してcontextに置く。
// トークンの発行は外部（認証基盤）で行う。
func AuthJWT(cfg config.Config) echo.MiddlewareFunc {
	secret := []byte(cfg.JWTSecret)

	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			raw, ok := bearerToken(c.Request().Header.Get(echo.HeaderAuthorization))
			if !ok {
				return unauthorized(c)
			}

			userID, role, err := parseIdentity(raw, secret)
			if err != nil {
				return unauthorized(c)
			}

			//contextへ保存
			c.Set(CtxUserIDKey, userID)
			c.Set(CtxUserRoleKey, role)
			return next(c)
		}
	}
}

// "Bearer <token>"
func bearerToken(header string) (string, bool) {
	scheme, token, found := strings.Cut(header, " ")
	if !found || !strings.EqualFold(scheme, "Bearer") {
		return "", false
	}
	token = strings.TrimSpace(token)
	return token, token != ""
}

// HS256のみ。exp/nbfはjwt.Parseが見る。
func parseIdentity(raw string, secret []byte) (userID string, role string, err error) {
	token, err := jwt.Parse(raw, func(t *jwt.Token) (interface{}, error) {
		if t.Method != jwt.SigningMethodHS256 {
			return nil, errInvalidToken
		}
		return secret, nil
	})
	if err != nil || !token.Valid {
		return "", "", errInvalidToken
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return "", "", errInvalidToken
	}

	userID, err = parseSubject(claims["sub"])
	if err != nil {
		return "", "", err
	}

	role, _ = claims["role"].(string)
	if role != RoleUser && role != RoleAdmin {
		return "", "", errInvalidToken
	}
	return userID, role, nil
}

// subは不透明なID（文字列/数値どちらも受ける）
func parseSubject(v interface{}) (string, error) {
	switch t := v.(type) {
	case string:
		s := strings.TrimSpace(t)
		if s == "" || len(s) > 255 {
			return "", errInvalidToken
		}
		return s, nil
	case float64:
		if t <= 0 || t != float64(int64(t)) {
			return "", errInvalidToken
		}
		return strconv.FormatInt(int64(t), 10), nil
	default:
		return "", errInvalidToken
	}
}

type errorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code"`
}

func unauthorized(c echo.Context) error {
	return c.JSON(http.StatusUnauthorized, errorResponse{Error: "unauthorized", Code: "unauthorized"})
}
