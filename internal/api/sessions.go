package api

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"checkin/internal/auth"
)

type loginRequest struct {
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required"`
}

type refreshRequest struct {
	RefreshToken string `json:"refreshToken" binding:"required"`
}

func (h *handlers) login(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Thiếu email hoặc mật khẩu"})
		return
	}
	acct, err := h.Accounts.Authenticate(strings.TrimSpace(req.Email), req.Password)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Sai email hoặc mật khẩu"})
		return
	}
	h.issue(c, acct.Email, acct.Role)
}

func (h *handlers) refresh(c *gin.Context) {
	var req refreshRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "missing refresh token"})
		return
	}
	claims, err := auth.Parse(req.RefreshToken, h.Tokens.SigningKey, h.Tokens.Issuer)
	if err != nil || !claims.Refresh {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid refresh token"})
		return
	}
	// Roles may have changed since the token was issued.
	acct, ok := h.Accounts[strings.ToLower(claims.Subject)]
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "account disabled"})
		return
	}
	h.issue(c, acct.Email, acct.Role)
}

func (h *handlers) issue(c *gin.Context, subject, role string) {
	pair, err := auth.Issue(subject, role, h.Tokens.Issuer, h.Tokens.SigningKey, h.Tokens.AccessTTL, h.Tokens.RefreshTTL)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "token issue failed"})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"accessToken":  pair.AccessToken,
		"refreshToken": pair.RefreshToken,
		"accessExp":    pair.AccessExp,
		"refreshExp":   pair.RefreshExp,
		"role":         role,
	})
}
