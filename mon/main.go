package main

import (
	"flag"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/davecgh/go-spew/spew"

	"github.com/newhook/asm6502/dis/disassembler"
	"github.com/newhook/asm6502/elf"
)

// Monitor represents the UI state: a disassembly listing of a loaded image
// with a hex pane and an inspector for the instruction under the cursor.
type Monitor struct {
	data   []byte
	origin uint16

	width  int
	height int

	locations     []disassembler.Location
	selectedIndex int
	topIndex      int

	memoryAddress uint16
	activePane    string // "disasm", "memory"
	gotoInput     textinput.Model
	showingGoto   bool
}

// Define some basic styles
var (
	subtle    = lipgloss.AdaptiveColor{Light: "#D9DCCF", Dark: "#383838"}
	highlight = lipgloss.AdaptiveColor{Light: "#874BFD", Dark: "#7D56F4"}
	special   = lipgloss.AdaptiveColor{Light: "#43BF6D", Dark: "#73F59F"}

	titleStyle = lipgloss.NewStyle().
			Foreground(subtle).
			Padding(0, 1)

	disasmStyle = lipgloss.NewStyle().
			BorderStyle(lipgloss.RoundedBorder()).
			BorderForeground(highlight).
			Padding(1)

	selectedLineStyle = lipgloss.NewStyle().
				Background(highlight).
				Foreground(lipgloss.Color("#ffffff"))

	memoryStyle = lipgloss.NewStyle().
			BorderStyle(lipgloss.RoundedBorder()).
			BorderForeground(special).
			Padding(1).
			Width(50)

	inspectStyle = lipgloss.NewStyle().
			BorderStyle(lipgloss.RoundedBorder()).
			BorderForeground(subtle).
			Padding(1).
			Width(50)
)

// NewMonitor builds the UI over a loaded image.
func NewMonitor(data []byte, origin uint16) *Monitor {
	ti := textinput.New()
	ti.Placeholder = "Enter hex address (e.g. FF00)"
	ti.CharLimit = 4
	ti.Width = 6

	return &Monitor{
		data:          data,
		origin:        origin,
		locations:     disassembler.Disassemble(data, origin),
		memoryAddress: origin,
		activePane:    "disasm",
		gotoInput:     ti,
	}
}

// Implementation of tea.Model interface
func (m *Monitor) Init() tea.Cmd {
	return nil
}

func (m *Monitor) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, nil

	case tea.KeyMsg:
		if m.showingGoto {
			return m.updateGoto(msg)
		}

		switch msg.String() {
		case "q", "ctrl+c":
			return m, tea.Quit
		case "tab":
			if m.activePane == "disasm" {
				m.activePane = "memory"
			} else {
				m.activePane = "disasm"
			}
		case "up", "k":
			m.moveCursor(-1)
		case "down", "j":
			m.moveCursor(1)
		case "pgup":
			m.moveCursor(-m.visibleLines())
		case "pgdown":
			m.moveCursor(m.visibleLines())
		case "g":
			m.showingGoto = true
			m.gotoInput.SetValue("")
			m.gotoInput.Focus()
			return m, textinput.Blink
		}
	}
	return m, nil
}

func (m *Monitor) updateGoto(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "esc":
		m.showingGoto = false
		return m, nil
	case "enter":
		m.showingGoto = false
		if addr, err := strconv.ParseUint(m.gotoInput.Value(), 16, 16); err == nil {
			m.jumpTo(uint16(addr))
		}
		return m, nil
	}
	var cmd tea.Cmd
	m.gotoInput, cmd = m.gotoInput.Update(msg)
	return m, cmd
}

func (m *Monitor) visibleLines() int {
	lines := m.height - 8
	if lines < 4 {
		lines = 4
	}
	return lines
}

func (m *Monitor) moveCursor(delta int) {
	switch m.activePane {
	case "disasm":
		m.selectedIndex += delta
		if m.selectedIndex < 0 {
			m.selectedIndex = 0
		}
		if m.selectedIndex >= len(m.locations) {
			m.selectedIndex = len(m.locations) - 1
		}
		if m.selectedIndex < m.topIndex {
			m.topIndex = m.selectedIndex
		}
		if m.selectedIndex >= m.topIndex+m.visibleLines() {
			m.topIndex = m.selectedIndex - m.visibleLines() + 1
		}
	case "memory":
		next := int(m.memoryAddress) + delta*8
		if next < 0 {
			next = 0
		}
		if next > 0xFFFF {
			next = 0xFFFF
		}
		m.memoryAddress = uint16(next)
	}
}

// jumpTo positions the cursor on the instruction containing addr.
func (m *Monitor) jumpTo(addr uint16) {
	if m.activePane == "memory" {
		m.memoryAddress = addr
		return
	}
	for i, loc := range m.locations {
		if int(loc.PC)+loc.Size() > int(addr) {
			m.selectedIndex = i
			m.topIndex = i
			return
		}
	}
}

// Format memory panel content
func (m *Monitor) formatMemory() string {
	var result strings.Builder
	addr := m.memoryAddress

	for row := 0; row < 8; row++ {
		result.WriteString(fmt.Sprintf("$%04X: ", addr))

		for col := 0; col < 8; col++ {
			offset := int(addr) - int(m.origin) + col
			if offset >= 0 && offset < len(m.data) {
				result.WriteString(fmt.Sprintf("%02X ", m.data[offset]))
			} else {
				result.WriteString(".. ")
			}
		}

		result.WriteString(" | ")
		for col := 0; col < 8; col++ {
			offset := int(addr) - int(m.origin) + col
			if offset >= 0 && offset < len(m.data) && m.data[offset] >= 32 && m.data[offset] <= 126 {
				result.WriteString(string(m.data[offset]))
			} else {
				result.WriteString(".")
			}
		}

		result.WriteString("\n")
		addr += 8
	}

	return result.String()
}

func (m *Monitor) formatListing() string {
	var result strings.Builder
	end := m.topIndex + m.visibleLines()
	if end > len(m.locations) {
		end = len(m.locations)
	}
	for i := m.topIndex; i < end; i++ {
		line := m.locations[i].String()
		if i == m.selectedIndex {
			line = selectedLineStyle.Render(line)
		}
		result.WriteString(line)
		result.WriteString("\n")
	}
	return result.String()
}

// formatInspect dumps the decoded instruction under the cursor.
func (m *Monitor) formatInspect() string {
	if m.selectedIndex >= len(m.locations) {
		return ""
	}
	loc := m.locations[m.selectedIndex]
	if loc.Inst == nil {
		return fmt.Sprintf("$%04X: data byte $%02X", loc.PC, loc.Value)
	}
	return spew.Sdump(*loc.Inst)
}

func (m *Monitor) View() string {
	if len(m.locations) == 0 {
		return "empty image\n"
	}

	left := disasmStyle.Render(m.formatListing())
	right := lipgloss.JoinVertical(lipgloss.Left,
		memoryStyle.Render(m.formatMemory()),
		inspectStyle.Render(m.formatInspect()),
	)

	view := lipgloss.JoinHorizontal(lipgloss.Top, left, right)

	status := titleStyle.Render("q quit · tab pane · j/k move · g goto")
	if m.showingGoto {
		status = titleStyle.Render("goto: " + m.gotoInput.View())
	}

	return lipgloss.JoinVertical(lipgloss.Left, view, status)
}

func main() {
	// Command line flags
	inputFile := flag.String("i", "", "Input binary or object file")
	startAddr := flag.String("a", "0", "Start address for raw binaries")
	flag.Parse()

	data, err := os.ReadFile(*inputFile)
	if err != nil {
		fmt.Printf("Error: %v\n", err)
		os.Exit(1)
	}

	var origin uint16
	if obj, err := elf.Read(data); err == nil {
		data = obj.Text
	} else {
		addrStr := *startAddr
		if strings.HasPrefix(addrStr, "$") {
			addrStr = "0x" + addrStr[1:]
		}
		startAddrInt, err := strconv.ParseUint(addrStr, 0, 16)
		if err != nil {
			fmt.Printf("Error parsing start address: %v\n", err)
			os.Exit(1)
		}
		origin = uint16(startAddrInt)
	}

	p := tea.NewProgram(NewMonitor(data, origin))
	if _, err := p.Run(); err != nil {
		fmt.Printf("Error running program: %v", err)
		os.Exit(1)
	}
}
