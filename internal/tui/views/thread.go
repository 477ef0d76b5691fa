package views

import (
	"fmt"

	"github.com/gdamore/tcell/v2"
	"github.com/rivo/tview"

	"whychat/internal/chat"
)

// Thread displays the message list and a composer for the active conversation.
type Thread struct {
	*tview.Flex
	messages *tview.TextView
	composer *tview.InputField
	onSend   func(text string)
}

// NewThread creates a new conversation thread view.
func NewThread() *Thread {
	messages := tview.NewTextView().
		SetDynamicColors(true).
		SetScrollable(true).
		SetWordWrap(true)
	messages.SetBorder(true)
	messages.SetTitle(" Messages ")

	composer := tview.NewInputField().
		SetLabel(" > ").
		SetFieldWidth(0)
	composer.SetBorder(true)
	composer.SetTitle(" Compose (i to focus, d to delete your last message) ")

	flex := tview.NewFlex().
		SetDirection(tview.FlexRow).
		AddItem(messages, 0, 1, true).
		AddItem(composer, 3, 0, false)

	t := &Thread{
		Flex:     flex,
		messages: messages,
		composer: composer,
	}

	composer.SetDoneFunc(func(key tcell.Key) {
		if key == tcell.KeyEnter && t.onSend != nil {
			text := composer.GetText()
			t.onSend(text)
			composer.SetText("")
		}
	})

	return t
}

// SetConversation updates the thread title to the conversation name.
func (t *Thread) SetConversation(name string) {
	t.messages.SetTitle(fmt.Sprintf(" %s ", name))
}

// SetOnSend sets the callback when a message is submitted.
func (t *Thread) SetOnSend(fn func(text string)) {
	t.onSend = fn
}

// Update refreshes the thread with the current snapshot. Messages from the
// given sender are marked "you"; unconfirmed sends get a pending marker and
// deleted messages render as a tombstone.
func (t *Thread) Update(msgs []chat.Message, senderID string) {
	t.messages.Clear()

	for _, m := range msgs {
		sender := m.SenderID
		if m.SenderID == senderID {
			sender = "you"
		}

		body := tview.Escape(sanitizeForTerminal(m.Body))
		switch {
		case m.Deleted:
			body = "[::d]message deleted[-:-:-]"
		case m.IsPlaceholder():
			body += " [::d](sending)[-:-:-]"
		}

		line := fmt.Sprintf("[::b]%s[-:-:-]\n%s\n\n",
			tview.Escape(sanitizeForTerminal(sender)), body)
		_, _ = fmt.Fprint(t.messages, line)
	}

	t.messages.ScrollToEnd()
}

// Messages returns the messages text view (for focus management).
func (t *Thread) Messages() *tview.TextView {
	return t.messages
}

// Composer returns the composer input field (for focus management).
func (t *Thread) Composer() *tview.InputField {
	return t.composer
}
