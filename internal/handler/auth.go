package handler

import (
    "context"      // bounded DB work per request
    "database/sql" // ErrNoRows mapping
    "net/http"     // HTTP status codes
    "strconv"      // JWT subject parsing
    "strings"      // input normalization
    "time"         // request timeouts

    "github.com/golang-jwt/jwt/v5" // access token parsing
    "github.com/labstack/echo/v4"  // Echo web framework

    "github.com/gearup/rental/internal/config"     // app configuration
    "github.com/gearup/rental/internal/repository" // user and token persistence
    "github.com/gearup/rental/internal/utils"      // hashing and token minting
)

// authTimeout bounds the database work behind each auth endpoint.
const authTimeout = 5 * time.Second

// AuthHandler exposes account registration and the token lifecycle.
// Access tokens are short-lived HS256 JWTs carrying the user id and
// role; refresh tokens are opaque, stored hashed and rotated on every
// refresh.
type AuthHandler struct {
    Cfg    config.Config
    Users  *repository.UserRepo
    Tokens *repository.TokenRepo
}

// NewAuthHandler constructs an AuthHandler.
func NewAuthHandler(cfg config.Config, u *repository.UserRepo, t *repository.TokenRepo) *AuthHandler {
    return &AuthHandler{Cfg: cfg, Users: u, Tokens: t}
}

type registerReq struct {
    Email    string `json:"email"`
    Password string `json:"password"`
    Role     string `json:"role"` // CUSTOMER | RENTER
}

type loginReq struct {
    Email    string `json:"email"`
    Password string `json:"password"`
}

type refreshReq struct {
    RefreshToken string `json:"refresh_token"`
}

type tokenPart struct {
    Token   string    `json:"token"`
    Expires time.Time `json:"expires"`
}

type userPart struct {
    ID    uint64 `json:"id"`
    Email string `json:"email"`
    Role  string `json:"role"`
}

type authResp struct {
    User    userPart  `json:"user"`
    Access  tokenPart `json:"access"`
    Refresh tokenPart `json:"refresh"`
}

// issuePair mints an access/refresh pair for the user and persists the
// refresh hash.  The raw refresh token travels back to the client
// exactly once; only its hash is stored.
func (h *AuthHandler) issuePair(ctx context.Context, uid uint64, email, role string) (*authResp, error) {
    access, err := utils.NewAccessToken(h.Cfg.JWTSecret, uid, role, h.Cfg.AccessTTLMin)
    if err != nil {
        return nil, err
    }
    refresh, err := utils.NewRefreshToken(h.Cfg.RefreshTTLDays)
    if err != nil {
        return nil, err
    }
    if err := h.Tokens.StoreRefresh(ctx, uid, utils.HashRefreshRaw(refresh.Raw), refresh.Exp); err != nil {
        return nil, err
    }
    return &authResp{
        User:    userPart{ID: uid, Email: email, Role: role},
        Access:  tokenPart{Token: access.Token, Expires: access.Exp},
        Refresh: tokenPart{Token: refresh.Raw, Expires: refresh.Exp},
    }, nil
}

// Register handles POST /v1/auth/register.  Unknown or missing roles
// default to CUSTOMER; the new account is logged in immediately and
// returned with its first token pair.
func (h *AuthHandler) Register(c echo.Context) error {
    var req registerReq
    if err := c.Bind(&req); err != nil {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
    }
    req.Email = strings.ToLower(strings.TrimSpace(req.Email))
    if req.Email == "" || req.Password == "" {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "email/password required"})
    }
    role := strings.ToUpper(strings.TrimSpace(req.Role))
    if role != "RENTER" && role != "CUSTOMER" {
        role = "CUSTOMER"
    }

    ctx, cancel := context.WithTimeout(c.Request().Context(), authTimeout)
    defer cancel()

    uid, err := h.Users.Create(ctx, req.Email, req.Password, role, h.Cfg.BcryptCost)
    if err != nil {
        if err == repository.ErrEmailExists {
            return c.JSON(http.StatusConflict, echo.Map{"error": "email already exists"})
        }
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "create user failed"})
    }
    resp, err := h.issuePair(ctx, uid, req.Email, role)
    if err != nil {
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "issue tokens failed"})
    }
    return c.JSON(http.StatusCreated, resp)
}

// Login handles POST /v1/auth/login.  A wrong email and a wrong
// password are indistinguishable in the response.
func (h *AuthHandler) Login(c echo.Context) error {
    var req loginReq
    if err := c.Bind(&req); err != nil {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
    }
    req.Email = strings.ToLower(strings.TrimSpace(req.Email))
    if req.Email == "" || req.Password == "" {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "email/password required"})
    }

    ctx, cancel := context.WithTimeout(c.Request().Context(), authTimeout)
    defer cancel()

    u, err := h.Users.GetByEmail(ctx, req.Email)
    if err != nil {
        if err == sql.ErrNoRows {
            return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid credentials"})
        }
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
    }
    if !utils.VerifyPassword(u.PasswordHash, req.Password) {
        return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid credentials"})
    }
    resp, err := h.issuePair(ctx, u.ID, u.Email, u.Role)
    if err != nil {
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "issue tokens failed"})
    }
    return c.JSON(http.StatusOK, resp)
}

// Refresh handles POST /v1/auth/refresh.  The presented refresh token
// is validated by hash, revoked, and replaced along with a fresh
// access token.  Rotation means a leaked refresh token stops working
// the moment its legitimate holder uses it.
func (h *AuthHandler) Refresh(c echo.Context) error {
    var req refreshReq
    if err := c.Bind(&req); err != nil || strings.TrimSpace(req.RefreshToken) == "" {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "refresh_token required"})
    }
    hash := utils.HashRefreshRaw(strings.TrimSpace(req.RefreshToken))

    ctx, cancel := context.WithTimeout(c.Request().Context(), authTimeout)
    defer cancel()

    userID, err := h.Tokens.ValidateRefresh(ctx, hash)
    if err != nil {
        return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid refresh"})
    }
    _ = h.Tokens.RevokeByHash(ctx, hash)

    u, err := h.Users.GetByID(ctx, userID)
    if err != nil {
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "load user failed"})
    }
    resp, err := h.issuePair(ctx, userID, u.Email, u.Role)
    if err != nil {
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "issue tokens failed"})
    }
    return c.JSON(http.StatusOK, resp)
}

// RefreshAccess handles POST /v1/auth/refresh-access.  It trades a
// still-valid refresh token for a new access token without rotating
// the refresh token, for clients that only need to renew the
// short-lived credential.
func (h *AuthHandler) RefreshAccess(c echo.Context) error {
    var req refreshReq
    if err := c.Bind(&req); err != nil || strings.TrimSpace(req.RefreshToken) == "" {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "refresh_token required"})
    }
    hash := utils.HashRefreshRaw(strings.TrimSpace(req.RefreshToken))

    ctx, cancel := context.WithTimeout(c.Request().Context(), authTimeout)
    defer cancel()

    userID, err := h.Tokens.ValidateRefresh(ctx, hash)
    if err != nil {
        return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid refresh"})
    }
    u, err := h.Users.GetByID(ctx, userID)
    if err != nil {
        if err == sql.ErrNoRows {
            return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid refresh"})
        }
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "load user failed"})
    }
    access, err := utils.NewAccessToken(h.Cfg.JWTSecret, userID, u.Role, h.Cfg.AccessTTLMin)
    if err != nil {
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "issue access failed"})
    }
    return c.JSON(http.StatusOK, echo.Map{
        "access": tokenPart{Token: access.Token, Expires: access.Exp},
    })
}

// bearerUserID parses an optional Authorization bearer and returns the
// subject user id.  Logout accepts either credential, so an absent or
// invalid bearer is not an error here.
func (h *AuthHandler) bearerUserID(c echo.Context) (uint64, bool) {
    header := c.Request().Header.Get("Authorization")
    if !strings.HasPrefix(header, "Bearer ") {
        return 0, false
    }
    tok, err := jwt.Parse(strings.TrimPrefix(header, "Bearer "), func(t *jwt.Token) (interface{}, error) {
        if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
            return nil, echo.ErrUnauthorized
        }
        return []byte(h.Cfg.JWTSecret), nil
    })
    if err != nil || !tok.Valid {
        return 0, false
    }
    claims, ok := tok.Claims.(jwt.MapClaims)
    if !ok {
        return 0, false
    }
    switch sub := claims["sub"].(type) {
    case float64:
        return uint64(sub), true
    case string:
        if parsed, err := strconv.ParseUint(sub, 10, 64); err == nil {
            return parsed, true
        }
    }
    return 0, false
}

// Logout handles POST /v1/auth/logout.  A bearer token with no body
// revokes every session of the user; a refresh_token in the body
// revokes that single session.  At least one of the two must be
// supplied.
func (h *AuthHandler) Logout(c echo.Context) error {
    uid, hasBearer := h.bearerUserID(c)

    var req refreshReq
    _ = c.Bind(&req)
    refreshToken := strings.TrimSpace(req.RefreshToken)

    ctx, cancel := context.WithTimeout(c.Request().Context(), authTimeout)
    defer cancel()

    if hasBearer && refreshToken == "" {
        if uid == 0 {
            return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
        }
        if err := h.Tokens.RevokeAllForUser(ctx, uid); err != nil {
            return c.JSON(http.StatusInternalServerError, echo.Map{"error": "logout failed"})
        }
        return c.NoContent(http.StatusNoContent)
    }
    if refreshToken != "" {
        hash := utils.HashRefreshRaw(refreshToken)
        if _, err := h.Tokens.ValidateRefresh(ctx, hash); err != nil {
            return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid refresh token"})
        }
        if err := h.Tokens.RevokeByHash(ctx, hash); err != nil {
            return c.JSON(http.StatusInternalServerError, echo.Map{"error": "logout failed"})
        }
        return c.NoContent(http.StatusNoContent)
    }
    return c.JSON(http.StatusBadRequest, echo.Map{"error": "provide Authorization header or refresh_token"})
}

// Me handles GET /v1/me.  It echoes the identity the JWT middleware
// placed on the context.
func (h *AuthHandler) Me(c echo.Context) error {
    return c.JSON(http.StatusOK, echo.Map{
        "user_id": c.Get("user_id"),
        "role":    c.Get("role"),
    })
}
