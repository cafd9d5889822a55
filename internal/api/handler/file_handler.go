package handler

import (
	"log/slog"
	"net/http"
	"strings"
	"unicode"

	"github.com/gin-gonic/gin"
)

const maxFilenameLength = 200

// Redeem handles GET /api/file/:token
// Serves the artifact behind a token exactly once. Unknown, expired, and
// already-used tokens all get the same 404 so callers cannot probe state.
func (h *FileHandler) Redeem(c *gin.Context) {
	id := c.Param("token")

	tok, err := h.tokens.Redeem(id)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{
			"error": "File not found or link expired",
		})
		return
	}

	h.logger.Info("Token redeemed",
		slog.String("token", tok.ID),
		slog.String("path", tok.ArtifactPath),
	)

	c.FileAttachment(tok.ArtifactPath, safeFilename(tok.DisplayName))
}

// safeFilename turns a display name into a filename safe for a
// Content-Disposition header: alphanumerics, spaces, dashes and underscores
// only, length-capped, with an .mp4 suffix.
func safeFilename(name string) string {
	var b strings.Builder
	for _, r := range name {
		if unicode.IsLetter(r) || unicode.IsDigit(r) || r == ' ' || r == '-' || r == '_' {
			b.WriteRune(r)
		}
	}

	safe := strings.TrimSpace(b.String())
	// Cap on runes, not bytes, so multibyte titles are never cut mid-character.
	if runes := []rune(safe); len(runes) > maxFilenameLength {
		safe = string(runes[:maxFilenameLength])
	}
	if safe == "" {
		safe = "download"
	}
	if !strings.HasSuffix(safe, ".mp4") {
		safe += ".mp4"
	}
	return safe
}
