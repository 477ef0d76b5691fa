package tui

import (
	"context"

	"github.com/gdamore/tcell/v2"
	"github.com/rivo/tview"
	"go.uber.org/zap"

	"whychat/internal/bus"
	"whychat/internal/conversation"
	"whychat/internal/status"
	"whychat/internal/tui/views"
)

// App is the TUI application shell: a login page and a conversation page.
type App struct {
	app        *tview.Application
	pages      *tview.Pages
	controller *conversation.Controller
	bus        *bus.Bus
	logger     *zap.Logger

	login     *views.Login
	thread    *views.Thread
	statusBar *views.StatusBar
	confirm   *tview.Modal

	ctx    context.Context
	cancel context.CancelFunc
}

// NewApp creates the TUI application.
func NewApp(ctrl *conversation.Controller, b *bus.Bus, logger *zap.Logger, defaultSender, defaultConversation string) *App {
	if logger == nil {
		logger = zap.NewNop()
	}
	ctx, cancel := context.WithCancel(context.Background())

	a := &App{
		app:        tview.NewApplication(),
		pages:      tview.NewPages(),
		controller: ctrl,
		bus:        b,
		logger:     logger,
		login:      views.NewLogin(defaultSender, defaultConversation),
		thread:     views.NewThread(),
		statusBar:  views.NewStatusBar(),
		ctx:        ctx,
		cancel:     cancel,
	}

	a.setupCallbacks()
	a.setupLayout()

	return a
}

func (a *App) setupCallbacks() {
	a.login.SetOnJoin(func(sender, conv string) {
		go func() {
			a.controller.Enter(a.ctx, conv, sender)
			a.app.QueueUpdateDraw(func() {
				a.statusBar.SetSender(sender)
				a.thread.SetConversation(conv)
				a.thread.Update(a.controller.Messages(), sender)
				a.pages.SwitchToPage("chat")
				a.app.SetFocus(a.thread.Composer())
			})
		}()
	})

	a.thread.SetOnSend(func(text string) {
		a.controller.Submit(text)
	})
}

func (a *App) setupLayout() {
	a.confirm = tview.NewModal().
		SetText("Delete this message?").
		AddButtons([]string{"Delete", "Cancel"})

	a.pages.AddPage("login", a.login, true, true)
	a.pages.AddPage("chat", a.thread, true, false)
	a.pages.AddPage("confirm", a.confirm, true, false)

	root := tview.NewFlex().
		SetDirection(tview.FlexRow).
		AddItem(a.pages, 0, 1, true).
		AddItem(a.statusBar, 1, 0, false)

	a.app.SetRoot(root, true)

	a.app.SetInputCapture(func(event *tcell.EventKey) *tcell.EventKey {
		currentPage, _ := a.pages.GetFrontPage()

		if currentPage == "login" && event.Key() == tcell.KeyTab {
			if a.app.GetFocus() == a.login.Sender() {
				a.app.SetFocus(a.login.Conversation())
			} else {
				a.app.SetFocus(a.login.Sender())
			}
			return nil
		}

		if event.Key() == tcell.KeyEscape && currentPage == "chat" {
			a.leaveConversation()
			return nil
		}

		// Let text input widgets handle all keys normally.
		if _, ok := a.app.GetFocus().(*tview.InputField); ok {
			return event
		}

		if currentPage == "chat" && event.Key() == tcell.KeyRune {
			switch event.Rune() {
			case 'i':
				a.app.SetFocus(a.thread.Composer())
				return nil
			case 'd':
				a.promptDelete()
				return nil
			case 'q':
				a.app.Stop()
				return nil
			}
		}

		return event
	})
}

// promptDelete offers deletion of the user's most recent confirmed message.
func (a *App) promptDelete() {
	target := a.lastOwnConfirmed()
	if target == "" {
		a.statusBar.SetFlash("nothing to delete")
		return
	}

	a.confirm.SetDoneFunc(func(_ int, label string) {
		a.pages.HidePage("confirm")
		a.app.SetFocus(a.thread.Messages())
		if label != "Delete" {
			return
		}
		go func() {
			err := a.controller.RequestDelete(a.ctx, target)
			a.app.QueueUpdateDraw(func() {
				if err != nil {
					a.statusBar.SetFlash("delete failed, try again")
					return
				}
				a.thread.Update(a.controller.Messages(), a.controller.SenderID())
			})
		}()
	})
	a.pages.ShowPage("confirm")
	a.app.SetFocus(a.confirm)
}

// lastOwnConfirmed returns the id of the newest confirmed, not yet deleted
// message from the current sender, or "".
func (a *App) lastOwnConfirmed() string {
	msgs := a.controller.Messages()
	sender := a.controller.SenderID()
	for i := len(msgs) - 1; i >= 0; i-- {
		m := msgs[i]
		if m.SenderID == sender && !m.IsPlaceholder() && !m.Deleted {
			return m.ID
		}
	}
	return ""
}

func (a *App) leaveConversation() {
	a.controller.Leave()
	a.pages.SwitchToPage("login")
	a.app.SetFocus(a.login.Sender())
	a.statusBar.SetState(string(status.Disconnected))
}

// Run starts the TUI and the bus-driven redraw loop.
func (a *App) Run() error {
	go a.watchEvents()
	return a.app.Run()
}

// watchEvents redraws on store changes and connection state changes.
func (a *App) watchEvents() {
	ch, unsub := a.bus.Subscribe("", 64)
	defer unsub()

	for {
		select {
		case evt := <-ch:
			switch evt.Kind {
			case "conversation.updated":
				a.app.QueueUpdateDraw(func() {
					a.thread.Update(a.controller.Messages(), a.controller.SenderID())
				})
			case "session.status_changed":
				change, ok := evt.Payload.(status.StatusChange)
				if !ok {
					continue
				}
				a.app.QueueUpdateDraw(func() {
					a.statusBar.SetState(string(change.To))
				})
			}
		case <-a.ctx.Done():
			return
		}
	}
}

// Stop gracefully shuts down the TUI.
func (a *App) Stop() {
	a.cancel()
	a.controller.Leave()
	a.app.Stop()
}
