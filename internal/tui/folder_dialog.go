package tui

import (
	"context"
	"strings"

	"folio-cli/internal/actions"
	"folio-cli/internal/model"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
)

const (
	fieldName = iota
	fieldDescription
	fieldIcon
	fieldCount
)

// folderDialog edits the name, description and icon of a folder.
type folderDialog struct {
	mode   actions.FolderMode
	inputs [fieldCount]textinput.Model
	focus  int
	err    string
	submit func(ctx context.Context, in model.FolderInput)
}

func newFolderDialog(mode actions.FolderMode, initial model.FolderInput, submit func(context.Context, model.FolderInput)) *folderDialog {
	d := &folderDialog{mode: mode, submit: submit}
	placeholders := [fieldCount]string{"Name", "Description (markdown)", "Icon"}
	values := [fieldCount]string{initial.Name, model.StrOrEmpty(initial.Description), initial.Icon}
	limits := [fieldCount]int{120, 2000, 8}
	for i := range d.inputs {
		ti := textinput.New()
		ti.Placeholder = placeholders[i]
		ti.CharLimit = limits[i]
		ti.Width = 40
		ti.SetValue(values[i])
		d.inputs[i] = ti
	}
	d.inputs[fieldName].Focus()
	return d
}

func (d *folderDialog) title() string {
	if d.mode == actions.FolderUpdate {
		return "Edit Folder"
	}
	return "New Folder"
}

func (d *folderDialog) setFocus(i int) {
	d.inputs[d.focus].Blur()
	d.focus = (i + fieldCount) % fieldCount
	d.inputs[d.focus].Focus()
}

func (d *folderDialog) value() model.FolderInput {
	in := model.FolderInput{
		Name: strings.TrimSpace(d.inputs[fieldName].Value()),
		Icon: strings.TrimSpace(d.inputs[fieldIcon].Value()),
	}
	if desc := strings.TrimSpace(d.inputs[fieldDescription].Value()); desc != "" {
		in.Description = &desc
	}
	return in
}

// update returns done=true when the dialog should close.
func (d *folderDialog) update(ctx context.Context, msg tea.KeyMsg) (done bool, cmd tea.Cmd) {
	switch msg.String() {
	case "esc", "ctrl+g":
		return true, nil
	case "tab", "down":
		d.setFocus(d.focus + 1)
		return false, nil
	case "shift+tab", "up":
		d.setFocus(d.focus - 1)
		return false, nil
	case "enter":
		in := d.value()
		if in.Name == "" {
			d.err = "Name is required"
			d.setFocus(fieldName)
			return false, nil
		}
		if d.submit != nil {
			d.submit(ctx, in)
		}
		return true, nil
	}
	d.err = ""
	d.inputs[d.focus], cmd = d.inputs[d.focus].Update(msg)
	return false, cmd
}

func (d *folderDialog) view(width int) string {
	labels := [fieldCount]string{"Name", "Description", "Icon"}
	var b strings.Builder
	for i := range d.inputs {
		b.WriteString(styleMuted().Render(labels[i]))
		b.WriteString("\n")
		b.WriteString(d.inputs[i].View())
		b.WriteString("\n\n")
	}
	if d.err != "" {
		b.WriteString(styleError().Render(d.err))
		b.WriteString("\n")
	}
	b.WriteString(styleMuted().Render("tab: next field   enter: save   esc: cancel"))
	return renderModalBox(width, d.title(), b.String())
}
