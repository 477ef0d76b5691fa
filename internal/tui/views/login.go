package views

import (
	"strings"

	"github.com/gdamore/tcell/v2"
	"github.com/rivo/tview"
)

// Login is the identity entry screen: sender name plus conversation id.
type Login struct {
	*tview.Flex
	sender       *tview.InputField
	conversation *tview.InputField
	onJoin       func(sender, conversation string)
}

// NewLogin creates the login view with the given defaults prefilled.
func NewLogin(defaultSender, defaultConversation string) *Login {
	sender := tview.NewInputField().
		SetLabel(" Your name: ").
		SetFieldWidth(32).
		SetText(defaultSender)

	conversation := tview.NewInputField().
		SetLabel(" Conversation: ").
		SetFieldWidth(32).
		SetText(defaultConversation)

	title := tview.NewTextView().
		SetTextAlign(tview.AlignCenter).
		SetText("whychat — enter your name")

	form := tview.NewFlex().
		SetDirection(tview.FlexRow).
		AddItem(title, 2, 0, false).
		AddItem(sender, 1, 0, true).
		AddItem(conversation, 1, 0, false).
		AddItem(tview.NewTextView().SetText(" Enter to join, Tab to switch field"), 2, 0, false)

	form.SetBorder(true)
	form.SetTitle(" whychat ")

	root := tview.NewFlex().
		AddItem(nil, 0, 1, false).
		AddItem(tview.NewFlex().
			SetDirection(tview.FlexRow).
			AddItem(nil, 0, 1, false).
			AddItem(form, 8, 0, true).
			AddItem(nil, 0, 1, false), 48, 0, true).
		AddItem(nil, 0, 1, false)

	l := &Login{
		Flex:         root,
		sender:       sender,
		conversation: conversation,
	}

	submit := func(key tcell.Key) {
		if key != tcell.KeyEnter {
			return
		}
		name := strings.TrimSpace(sender.GetText())
		conv := strings.TrimSpace(conversation.GetText())
		if name == "" || conv == "" {
			return
		}
		if l.onJoin != nil {
			l.onJoin(name, conv)
		}
	}
	sender.SetDoneFunc(submit)
	conversation.SetDoneFunc(submit)

	return l
}

// SetOnJoin sets the callback invoked with a non-blank sender and conversation.
func (l *Login) SetOnJoin(fn func(sender, conversation string)) {
	l.onJoin = fn
}

// Sender returns the sender input field (for focus management).
func (l *Login) Sender() *tview.InputField {
	return l.sender
}

// Conversation returns the conversation input field (for focus management).
func (l *Login) Conversation() *tview.InputField {
	return l.conversation
}
