package tui

import (
	"errors"
	"fmt"
	"strings"

	"console/internal/disclosure"

	tea "github.com/charmbracelet/bubbletea"
)

// disclosureView is the one-time backup-code presentation shared by the
// enrollment wizard and the regenerate flow. It owns the export affordances;
// the wrapped Disclosure owns the dismissal policy.
type disclosureView struct {
	disc      *disclosure.Disclosure
	exportDir string

	notice   string
	errText  string
	printing bool
	done     bool
}

func newDisclosureView(disc *disclosure.Disclosure, exportDir string) disclosureView {
	return disclosureView{disc: disc, exportDir: exportDir}
}

// handleKey processes one keystroke. done flips true once the disclosure has
// been dismissed.
func (v *disclosureView) handleKey(msg tea.KeyMsg) {
	if v.printing {
		// Any key leaves the print view.
		v.printing = false
		return
	}

	v.notice = ""
	v.errText = ""

	switch msg.String() {
	case "c":
		if err := v.disc.CopyToClipboard(); err != nil {
			v.errText = fmt.Sprintf("Copy failed: %v", err)
			return
		}
		v.notice = "Backup codes copied to clipboard."
	case "d":
		path, err := v.disc.WriteFile(v.exportDir)
		if err != nil {
			v.errText = fmt.Sprintf("Download failed: %v", err)
			return
		}
		v.notice = fmt.Sprintf("Saved to %s", path)
	case "p":
		v.printing = true
	case "s":
		v.disc.MarkSaved()
		v.notice = "Marked as saved."
	case "enter", "esc":
		if err := v.disc.Dismiss(); err != nil {
			if errors.Is(err, disclosure.ErrNotSaved) {
				v.errText = "Save your backup codes first (c copy, d download, or s to confirm)."
				return
			}
			v.errText = err.Error()
			return
		}
		v.done = true
	}
}

func (v disclosureView) view() string {
	if v.printing {
		body, err := v.disc.PrintView()
		if err != nil {
			return errorStyle.Render(err.Error()) + "\n"
		}
		return body + "\n" + hintStyle.Render("press any key to return") + "\n"
	}

	var b strings.Builder
	b.WriteString(titleStyle.Render(fmt.Sprintf("Backup codes for %s", v.disc.Subject())))
	b.WriteString("\n\n")
	b.WriteString("These codes are shown once and cannot be retrieved again.\n")
	b.WriteString("Each code works exactly one time.\n\n")
	for _, code := range v.disc.Codes() {
		b.WriteString("  " + codeStyle.Render(code) + "\n")
	}
	b.WriteString("\n")
	if v.notice != "" {
		b.WriteString(noticeStyle.Render(v.notice) + "\n")
	}
	if v.errText != "" {
		b.WriteString(errorStyle.Render(v.errText) + "\n")
	}
	b.WriteString(hintStyle.Render("c copy  •  d download  •  p print view  •  s I saved them  •  enter done"))
	b.WriteString("\n")
	return b.String()
}

type regenerateModel struct {
	view disclosureView
}

// RunDisclosure presents an already-issued code set on its own, used by the
// regenerate flow. This variant is dismissible without a save confirmation.
func RunDisclosure(disc *disclosure.Disclosure, exportDir string) error {
	m := regenerateModel{view: newDisclosureView(disc, exportDir)}
	_, err := tea.NewProgram(m).Run()
	return err
}

func (m regenerateModel) Init() tea.Cmd { return nil }

func (m regenerateModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	if key, ok := msg.(tea.KeyMsg); ok {
		if key.String() == "ctrl+c" {
			return m, tea.Quit
		}
		m.view.handleKey(key)
		if m.view.done {
			return m, tea.Quit
		}
	}
	return m, nil
}

func (m regenerateModel) View() string {
	return "\n" + m.view.view()
}
