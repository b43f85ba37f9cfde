package handlers

import (
	"errors"
	"net/http"
	"strings"
	"unicode/utf8"

	"github.com/eventease-dev/eventease/internal/ai"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

const maxSpeechTextLength = 5000

type TranslateRequest struct {
	Text       string `json:"text"`
	TargetLang string `json:"target_lang"`
}

type SpeakRequest struct {
	Text string `json:"text"`
	Lang string `json:"lang"`
}

func (h *Handler) Translate(ctx *gin.Context) {
	var body TranslateRequest

	if err := ctx.ShouldBindJSON(&body); err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
		return
	}

	if strings.TrimSpace(body.Text) == "" {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "Text is required"})
		return
	}

	if h.AI.Translator == nil {
		ctx.JSON(http.StatusServiceUnavailable, gin.H{"error": "Translation service is not configured"})
		return
	}

	translated, err := h.AI.Translator.Translate(ctx.Request.Context(), body.Text, body.TargetLang)

	if err != nil {
		if errors.Is(err, ai.ErrInvalidLanguage) {
			ctx.JSON(http.StatusBadRequest, gin.H{"error": "Invalid target language"})
			return
		}
		h.Logger.Error("Translation failed", zap.Error(err))
		ctx.JSON(http.StatusBadGateway, gin.H{"error": "Translation failed"})
		return
	}

	ctx.JSON(http.StatusOK, gin.H{"translated_text": translated})
}

// Speak answers with MP3 audio.
func (h *Handler) Speak(ctx *gin.Context) {
	var body SpeakRequest

	if err := ctx.ShouldBindJSON(&body); err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
		return
	}

	text := strings.TrimSpace(body.Text)

	if text == "" {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "Text is required"})
		return
	}

	if utf8.RuneCountInString(text) > maxSpeechTextLength {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "Text is too long"})
		return
	}

	if h.AI.Speaker == nil {
		ctx.JSON(http.StatusServiceUnavailable, gin.H{"error": "Text-to-speech service is not configured"})
		return
	}

	audio, err := h.AI.Speaker.Speak(ctx.Request.Context(), text, body.Lang)

	if err != nil {
		if errors.Is(err, ai.ErrInvalidLanguage) {
			ctx.JSON(http.StatusBadRequest, gin.H{"error": "Invalid language"})
			return
		}
		h.Logger.Error("Speech synthesis failed", zap.Error(err))
		ctx.JSON(http.StatusBadGateway, gin.H{"error": "Speech synthesis failed"})
		return
	}

	ctx.Data(http.StatusOK, "audio/mpeg", audio)
}
