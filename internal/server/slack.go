package server

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/nickdenys/grocery-bot/internal/commands"
	"go.uber.org/zap"
)

const (
	responseTypeEphemeral = "ephemeral"
	responseTypeInChannel = "in_channel"
	attachmentTypeDefault = "default"
	actionTypeButton      = "button"
)

type slashCommandForm struct {
	Token       string `form:"token"`
	Command     string `form:"command"`
	Text        string `form:"text"`
	UserID      string `form:"user_id"`
	UserName    string `form:"user_name"`
	ChannelID   string `form:"channel_id"`
	ResponseURL string `form:"response_url"`
}

type actionPayload struct {
	Type       string              `json:"type"`
	Token      string              `json:"token"`
	CallbackID string              `json:"callback_id"`
	Actions    []actionValue       `json:"actions"`
	User       actionPayloadPerson `json:"user"`
}

type actionValue struct {
	Name  string `json:"name"`
	Value string `json:"value"`
}

type actionPayloadPerson struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

type slackMessage struct {
	ResponseType    string            `json:"response_type,omitempty"`
	Text            string            `json:"text,omitempty"`
	Attachments     []slackAttachment `json:"attachments,omitempty"`
	ReplaceOriginal bool              `json:"replace_original"`
}

type slackAttachment struct {
	Text           string        `json:"text"`
	Fallback       string        `json:"fallback"`
	CallbackID     string        `json:"callback_id"`
	Color          string        `json:"color,omitempty"`
	AttachmentType string        `json:"attachment_type"`
	Actions        []slackButton `json:"actions"`
}

type slackButton struct {
	Name  string `json:"name"`
	Text  string `json:"text"`
	Type  string `json:"type"`
	Style string `json:"style,omitempty"`
	Value string `json:"value"`
}

func (h *httpHandler) handleSlashCommand(c *gin.Context) {
	var form slashCommandForm
	if err := c.ShouldBindWith(&form, binding.Form); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid_request"})
		return
	}
	if !tokensMatch(h.verifyToken, form.Token) {
		h.logger.Warn("slash command token rejected", zap.String("request_id", c.GetString(requestIDContextKey)))
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}
	if !strings.EqualFold(strings.TrimSpace(form.Command), h.commands.Variant().Command) {
		c.JSON(http.StatusNotFound, gin.H{"error": "unknown_command"})
		return
	}

	reply := h.commands.HandleCommand(c.Request.Context(), commands.Invocation{
		Command:  form.Command,
		Text:     form.Text,
		UserID:   form.UserID,
		UserName: form.UserName,
	})
	writeReply(c, reply)
}

func (h *httpHandler) handleAction(c *gin.Context) {
	raw := c.PostForm("payload")
	if strings.TrimSpace(raw) == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid_request"})
		return
	}
	var payload actionPayload
	if err := json.Unmarshal([]byte(raw), &payload); err != nil || len(payload.Actions) == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid_request"})
		return
	}
	if !tokensMatch(h.verifyToken, payload.Token) {
		h.logger.Warn("action token rejected", zap.String("request_id", c.GetString(requestIDContextKey)))
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	reply, err := h.commands.HandleAction(c.Request.Context(), commands.Action{
		CallbackID: payload.CallbackID,
		Value:      payload.Actions[0].Value,
		UserID:     payload.User.ID,
		UserName:   payload.User.Name,
	})
	if err != nil {
		if errors.Is(err, commands.ErrUnknownCallback) {
			c.JSON(http.StatusBadRequest, gin.H{"error": "unknown_callback"})
			return
		}
		h.logger.Error("failed to handle action", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "action_failed"})
		return
	}
	writeReply(c, reply)
}

// writeReply acknowledges an empty reply with a bare 200.
func writeReply(c *gin.Context, reply commands.Reply) {
	if reply.Empty() {
		c.Status(http.StatusOK)
		return
	}
	c.JSON(http.StatusOK, encodeReply(reply))
}

func encodeReply(reply commands.Reply) slackMessage {
	message := slackMessage{
		ResponseType:    responseTypeEphemeral,
		Text:            reply.Text,
		ReplaceOriginal: reply.ReplaceOriginal,
	}
	if reply.Visibility == commands.InChannel {
		message.ResponseType = responseTypeInChannel
	}
	for _, attachment := range reply.Attachments {
		encoded := slackAttachment{
			Text:           attachment.Text,
			Fallback:       attachment.Fallback,
			CallbackID:     attachment.CallbackID,
			Color:          attachment.Color,
			AttachmentType: attachmentTypeDefault,
			Actions:        make([]slackButton, 0, len(attachment.Buttons)),
		}
		for _, button := range attachment.Buttons {
			encoded.Actions = append(encoded.Actions, slackButton{
				Name:  button.Name,
				Text:  button.Text,
				Type:  actionTypeButton,
				Style: button.Style,
				Value: button.Value,
			})
		}
		message.Attachments = append(message.Attachments, encoded)
	}
	return message
}
