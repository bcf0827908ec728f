// pattern: Imperative Shell
package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	catppuccin "github.com/catppuccin/go"
	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-isatty"
	"github.com/rodaine/table"

	"projectbranch/internal/branch"
	"projectbranch/internal/catalog"
	"projectbranch/internal/discovery"
	"projectbranch/internal/gitport"
	"projectbranch/internal/remote"
)

// OutputMode selects between JSON and styled text.
type OutputMode int

const (
	// OutputAuto writes text to a terminal and JSON everywhere else.
	OutputAuto OutputMode = iota
	OutputJSON
	OutputText
)

// Renderer writes command results to one writer.
type Renderer struct {
	out    io.Writer
	json   bool
	styles styles
}

type styles struct {
	title  lipgloss.Style
	subtle lipgloss.Style
	accent lipgloss.Style
	badge  lipgloss.Style
	warn   lipgloss.Style
}

// NewRenderer creates a renderer. theme is a catppuccin flavor name.
func NewRenderer(out io.Writer, mode OutputMode, theme string) *Renderer {
	if mode == OutputAuto {
		mode = OutputJSON
		if isTerminal(out) {
			mode = OutputText
		}
	}
	return &Renderer{
		out:    out,
		json:   mode == OutputJSON,
		styles: newStyles(lipgloss.NewRenderer(out), flavorFromName(theme)),
	}
}

// JSON reports whether the renderer emits JSON.
func (r *Renderer) JSON() bool {
	return r.json
}

func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}

func flavorFromName(name string) catppuccin.Flavor {
	switch name {
	case "latte":
		return catppuccin.Latte
	case "frappe":
		return catppuccin.Frappe
	case "macchiato":
		return catppuccin.Macchiato
	default:
		return catppuccin.Mocha
	}
}

func newStyles(lr *lipgloss.Renderer, flavor catppuccin.Flavor) styles {
	color := func(c catppuccin.Color) lipgloss.Color { return lipgloss.Color(c.Hex) }
	return styles{
		title:  lr.NewStyle().Bold(true).Foreground(color(flavor.Mauve())),
		subtle: lr.NewStyle().Foreground(color(flavor.Subtext0())),
		accent: lr.NewStyle().Foreground(color(flavor.Teal())),
		badge:  lr.NewStyle().Foreground(color(flavor.Green())),
		warn:   lr.NewStyle().Foreground(color(flavor.Peach())),
	}
}

func (r *Renderer) writeJSON(v any) error {
	enc := json.NewEncoder(r.out)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// Candidates renders a flat discovery listing as a table.
func (r *Renderer) Candidates(candidates []discovery.Candidate) error {
	if r.json {
		if candidates == nil {
			candidates = []discovery.Candidate{}
		}
		return r.writeJSON(candidates)
	}
	if len(candidates) == 0 {
		_, err := fmt.Fprintln(r.out, r.styles.subtle.Render("No repositories found."))
		return err
	}

	tbl := table.New("PATH", "DOCS", "README", "GIT").WithWriter(r.out)
	tbl.WithPadding(2)
	tbl.WithWidthFunc(lipgloss.Width)
	tbl.WithFirstColumnFormatter(func(format string, vals ...any) string {
		return r.styles.title.Render(fmt.Sprintf(format, vals...))
	})
	for _, c := range candidates {
		tbl.AddRow(c.RepositoryPath, yesNo(c.HasDocsFolder), yesNo(c.HasReadme), gitKind(c.Git))
	}
	tbl.Print()
	return nil
}

// Projects renders grouped projects with their worktrees.
func (r *Renderer) Projects(projects []catalog.Project) error {
	if r.json {
		if projects == nil {
			projects = []catalog.Project{}
		}
		return r.writeJSON(projects)
	}
	if len(projects) == 0 {
		_, err := fmt.Fprintln(r.out, r.styles.subtle.Render("No projects found."))
		return err
	}

	for i, p := range projects {
		if i > 0 {
			fmt.Fprintln(r.out)
		}
		header := r.styles.title.Render(StripANSI(p.DisplayName)) + "  " + r.styles.subtle.Render(p.ProjectPath)
		if p.HasDocsFolder {
			header += "  " + r.styles.badge.Render("docs")
		}
		fmt.Fprintln(r.out, header)

		for _, w := range p.Worktrees {
			marker := " "
			if w.IsDefault {
				marker = r.styles.accent.Render("*")
			}
			name := w.BranchName
			switch {
			case w.IsBareRepository:
				name = "(bare)"
			case name == "":
				name = "(detached)"
			}
			fmt.Fprintf(r.out, "  %s %s  %s\n", marker, r.styles.accent.Render(name), r.styles.subtle.Render(w.RepositoryPath))
		}
	}
	return nil
}

// MappingView is the rendered result of `map`.
type MappingView struct {
	Path    string           `json:"path"`
	Remotes []gitport.Remote `json:"remotes"`
	remote.Result
}

// Mapping renders a remote mapping result.
func (r *Renderer) Mapping(view MappingView) error {
	if r.json {
		if view.Remotes == nil {
			view.Remotes = []gitport.Remote{}
		}
		return r.writeJSON(view)
	}
	if view.Mapping == nil {
		reason := string(view.Reason)
		_, err := fmt.Fprintf(r.out, "%s  %s\n", r.styles.subtle.Render(view.Path), r.styles.warn.Render(reason))
		return err
	}
	_, err := fmt.Fprintf(r.out, "%s  %s %s\n",
		r.styles.subtle.Render(view.Path),
		r.styles.title.Render(view.Mapping.FullName),
		r.styles.subtle.Render("("+view.Mapping.RemoteName+")"))
	return err
}

// BranchView is the rendered result of `branches` and `switch`.
type BranchView struct {
	Path string `json:"path"`
	branch.Context
}

// Branches renders a worktree's branch context.
func (r *Renderer) Branches(view BranchView) error {
	if r.json {
		if view.Branches == nil {
			view.Branches = []gitport.Branch{}
		}
		return r.writeJSON(view)
	}
	for _, b := range view.Branches {
		if b.IsCurrent {
			fmt.Fprintf(r.out, "%s %s\n", r.styles.accent.Render("*"), r.styles.title.Render(b.Name))
			continue
		}
		fmt.Fprintf(r.out, "  %s\n", b.Name)
	}
	if len(view.Branches) == 0 {
		_, err := fmt.Fprintln(r.out, r.styles.subtle.Render("No branches."))
		return err
	}
	return nil
}

// DocumentView is the rendered result of `doc write` and `doc append`.
type DocumentView struct {
	Path     string `json:"path"`
	Contents string `json:"contents"`
}

// Document renders a written document. Text mode prints only the path.
func (r *Renderer) Document(view DocumentView) error {
	if r.json {
		return r.writeJSON(view)
	}
	_, err := fmt.Fprintf(r.out, "Wrote %s\n", r.styles.subtle.Render(view.Path))
	return err
}

func yesNo(b bool) string {
	if b {
		return "yes"
	}
	return "-"
}

func gitKind(g discovery.GitMetadata) string {
	switch {
	case !g.HasMetadata:
		return "-"
	case g.IsWorktree:
		return "worktree"
	default:
		return string(g.MetadataKind)
	}
}
