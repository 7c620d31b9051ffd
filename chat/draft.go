package chat

import (
	"github.com/rs/zerolog/log"

	"github.com/gosuda/aniverse-chat/page"
)

func (c *Client) restoreDraft() {
	if c.drafts == nil {
		return
	}
	text, err := c.drafts.Load()
	if err != nil {
		log.Warn().Err(err).Msg("[chat] load draft failed")
		return
	}
	if text == "" {
		return
	}
	c.session.SetDraft(text)
	if c.doc.SetValue(page.MessageInput, text) {
		c.resize(text)
	}
}

func (c *Client) saveDraft(text string) {
	c.session.SetDraft(text)
	if c.drafts == nil {
		return
	}
	if err := c.drafts.Save(text); err != nil {
		log.Warn().Err(err).Msg("[chat] save draft failed")
	}
}

func (c *Client) clearDraft() {
	c.session.SetDraft("")
	if c.drafts == nil {
		return
	}
	if err := c.drafts.Clear(); err != nil {
		log.Warn().Err(err).Msg("[chat] clear draft failed")
	}
}
