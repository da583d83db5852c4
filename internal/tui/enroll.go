package tui

import (
	"context"
	"errors"
	"strings"

	"console/internal/disclosure"
	"console/internal/enrollment"
	apierrors "console/internal/errors"
	"console/internal/identity"
	"console/internal/lifecycle"
	"console/internal/messaging"
	"console/internal/models"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
)

// Options wires the enrollment wizard to the rest of the console.
type Options struct {
	Client          identity.IClient
	Publisher       messaging.IPublisher
	ExportDirectory string
}

type passwordResultMsg struct {
	err error
}

type codeResultMsg struct {
	set models.BackupCodeSet
	err error
}

type enrollModel struct {
	opts    Options
	session *enrollment.Session

	password textinput.Model
	code     textinput.Model
	disc     *disclosureView

	errText string
}

// RunEnrollment drives one enrollment attempt end to end: password
// re-verification, QR provisioning, code verification, and the blocking
// backup-code disclosure. Cancelling at any step before completion abandons
// the attempt and wipes the provisioning secret.
func RunEnrollment(opts Options) error {
	session := enrollment.NewSession(opts.Client)
	if err := session.Open(); err != nil {
		return err
	}

	m := newEnrollModel(opts, session)
	_, err := tea.NewProgram(m).Run()
	return err
}

func newEnrollModel(opts Options, session *enrollment.Session) enrollModel {
	password := textinput.New()
	password.Placeholder = "current password"
	password.EchoMode = textinput.EchoPassword
	password.CharLimit = 128
	password.Width = 40
	password.Focus()

	code := textinput.New()
	code.Placeholder = "000000"
	code.CharLimit = 6
	code.Width = 10

	return enrollModel{opts: opts, session: session, password: password, code: code}
}

func (m enrollModel) Init() tea.Cmd { return textinput.Blink }

func (m enrollModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		if msg.String() == "ctrl+c" {
			m.session.Cancel()
			return m, tea.Quit
		}
		if m.session.InFlight() {
			// A request is outstanding; the wizard accepts no input until
			// it resolves.
			return m, nil
		}
		return m.handleKey(msg)

	case passwordResultMsg:
		if errors.Is(msg.err, enrollment.ErrStaleResponse) {
			return m, nil
		}
		m.password.SetValue("")
		if msg.err != nil {
			m.errText = apierrors.UserMessage(msg.err)
			return m, nil
		}
		m.errText = ""
		return m, nil

	case codeResultMsg:
		if errors.Is(msg.err, enrollment.ErrStaleResponse) {
			return m, nil
		}
		if msg.err != nil {
			m.errText = apierrors.UserMessage(msg.err)
			if apierrors.Ambiguous(msg.err) {
				// Outcome unknown: the code may have been consumed, so a
				// resubmission of the same digits would be wrong.
				m.code.SetValue("")
			}
			return m, nil
		}
		m.errText = ""
		lifecycle.PublishStatusChanged(m.opts.Publisher, m.opts.Client.Subject())
		view := newDisclosureView(disclosure.New(msg.set, true), m.opts.ExportDirectory)
		m.disc = &view
		return m, nil
	}
	return m, nil
}

func (m enrollModel) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch m.session.State() {
	case enrollment.StateAwaitingPassword:
		switch msg.String() {
		case "esc":
			m.session.Cancel()
			return m, tea.Quit
		case "enter":
			return m, submitPasswordCmd(m.session, m.password.Value())
		default:
			var cmd tea.Cmd
			m.password, cmd = m.password.Update(msg)
			return m, cmd
		}

	case enrollment.StateAwaitingQrScan:
		switch msg.String() {
		case "esc":
			m.session.Cancel()
			return m, tea.Quit
		case "enter":
			if err := m.session.AcknowledgeScan(); err != nil {
				m.errText = err.Error()
				return m, nil
			}
			m.errText = ""
			m.code.Focus()
			return m, textinput.Blink
		}
		return m, nil

	case enrollment.StateAwaitingCode:
		switch msg.String() {
		case "esc":
			// Back to the QR step; the same secret is shown again.
			if err := m.session.Back(); err == nil {
				m.errText = ""
				m.code.SetValue("")
			}
			return m, nil
		case "enter":
			if !enrollment.CodeComplete(m.code.Value()) {
				// Submission stays gated until all six digits are present.
				return m, nil
			}
			return m, submitCodeCmd(m.session, m.code.Value())
		default:
			var cmd tea.Cmd
			m.code, cmd = m.code.Update(msg)
			m.code.SetValue(enrollment.SanitizeCode(m.code.Value()))
			return m, cmd
		}

	case enrollment.StateCompleted:
		if m.disc == nil {
			return m, nil
		}
		m.disc.handleKey(msg)
		if m.disc.done {
			_ = m.session.Reset()
			return m, tea.Quit
		}
		return m, nil
	}
	return m, nil
}

func (m enrollModel) View() string {
	var b strings.Builder
	b.WriteString("\n")

	switch m.session.State() {
	case enrollment.StateAwaitingPassword:
		b.WriteString(titleStyle.Render("Enable multi-factor authentication"))
		b.WriteString("\n\nConfirm your password to continue:\n\n")
		b.WriteString("  " + m.password.View() + "\n\n")
		m.writeStatusLine(&b, "enter continue  •  esc cancel")

	case enrollment.StateAwaitingQrScan:
		secret, ok := m.session.Secret()
		if !ok {
			return errorStyle.Render("no provisioning secret available") + "\n"
		}
		b.WriteString(titleStyle.Render("Scan with your authenticator app"))
		b.WriteString("\n\n")
		b.WriteString(secretBoxStyle.Render(secret.ProvisioningURI))
		b.WriteString("\n\nCan't scan? Enter this secret manually:\n")
		b.WriteString("  " + codeStyle.Render(secret.RawSecret) + "\n\n")
		m.writeStatusLine(&b, "enter I've added the account  •  esc cancel")

	case enrollment.StateAwaitingCode:
		b.WriteString(titleStyle.Render("Verify your authenticator"))
		b.WriteString("\n\nEnter the 6-digit code shown in your app:\n\n")
		b.WriteString("  " + m.code.View() + "\n\n")
		hint := "esc back to QR code"
		if enrollment.CodeComplete(m.code.Value()) {
			hint = "enter verify  •  " + hint
		}
		m.writeStatusLine(&b, hint)

	case enrollment.StateCompleted:
		if m.disc != nil {
			b.WriteString(m.disc.view())
		}

	default:
		b.WriteString(hintStyle.Render("enrollment cancelled") + "\n")
	}

	return b.String()
}

func (m enrollModel) writeStatusLine(b *strings.Builder, hint string) {
	if m.session.InFlight() {
		b.WriteString(hintStyle.Render("Contacting identity service...") + "\n")
		return
	}
	if m.errText != "" {
		b.WriteString(errorStyle.Render(m.errText) + "\n")
	}
	b.WriteString(hintStyle.Render(hint) + "\n")
}

func submitPasswordCmd(session *enrollment.Session, password string) tea.Cmd {
	return func() tea.Msg {
		return passwordResultMsg{err: session.SubmitPassword(context.Background(), password)}
	}
}

func submitCodeCmd(session *enrollment.Session, code string) tea.Cmd {
	return func() tea.Msg {
		set, err := session.SubmitCode(context.Background(), code)
		return codeResultMsg{set: set, err: err}
	}
}
