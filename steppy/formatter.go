package steppy

import (
	"fmt"
	"io"
	"os"
	"sync"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/lipgloss"
)

// Formatter renders progress for humans. Besides the Listener events it can
// print a section header and free-form lines.
type Formatter interface {
	Listener
	Head(message string)
	Log(args ...interface{})
}

var groupColors = map[string]lipgloss.Color{
	"vercel": lipgloss.Color("5"),
	"github": lipgloss.Color("4"),
	"google": lipgloss.Color("2"),
	"mongo":  lipgloss.Color("3"),
	"local":  lipgloss.Color("8"),
}

// DefaultFormatter prints one line per step:
//
//	[15:04:05] [github] setting up github ✔
//
// The line is started when the step starts and completed when it settles. On a
// terminal a spinner runs at the end of the line until then.
type DefaultFormatter struct {
	mu       sync.Mutex
	out      io.Writer
	renderer *lipgloss.Renderer
	now      func() time.Time
	group    func(group string) string
	live     bool
	open     bool
	prefix   string
	spinner  spinner.Model
	stop     chan struct{}
}

type FormatterOption func(*DefaultFormatter)

// WithGroupFormatter overrides how group tags are rendered.
func WithGroupFormatter(fn func(group string) string) FormatterOption {
	return func(f *DefaultFormatter) {
		f.group = fn
	}
}

func WithClock(now func() time.Time) FormatterOption {
	return func(f *DefaultFormatter) {
		f.now = now
	}
}

func NewDefaultFormatter(w io.Writer, opts ...FormatterOption) *DefaultFormatter {
	f := &DefaultFormatter{
		out:      w,
		renderer: lipgloss.NewRenderer(w),
		now:      time.Now,
		live:     isTerminal(w),
		spinner:  spinner.New(spinner.WithSpinner(spinner.MiniDot)),
	}
	f.group = f.formatGroup
	for _, opt := range opts {
		opt(f)
	}
	return f
}

func (f *DefaultFormatter) OnJobStart(string) {}

func (f *DefaultFormatter) OnStepStart(step StepDescriptor) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.stopSpinner()
	f.prefix = f.formatTitle(step)
	f.open = true
	if !f.live {
		fmt.Fprint(f.out, f.prefix)
		return
	}

	fmt.Fprintf(f.out, "%s %s", f.prefix, f.spinner.View())
	f.stop = make(chan struct{})
	go f.spin(f.stop, f.spinner.Spinner.FPS)
}

// spin advances the spinner until stop is closed. stop is closed under f.mu, so
// nothing is written once the step's line has been completed.
func (f *DefaultFormatter) spin(stop chan struct{}, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
			f.mu.Lock()
			select {
			case <-stop:
				f.mu.Unlock()
				return
			default:
			}
			f.tick()
			f.mu.Unlock()
		}
	}
}

// tick draws the next spinner frame. f.mu must be held.
func (f *DefaultFormatter) tick() {
	f.spinner, _ = f.spinner.Update(f.spinner.Tick())
	fmt.Fprintf(f.out, "\r%s %s", f.prefix, f.spinner.View())
}

// stopSpinner stops the running spinner, if any. f.mu must be held.
func (f *DefaultFormatter) stopSpinner() {
	if f.stop != nil {
		close(f.stop)
		f.stop = nil
	}
}

func (f *DefaultFormatter) OnStepEnd(step StepDescriptor, report StepReport) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.stopSpinner()
	mark := f.renderer.NewStyle().Foreground(lipgloss.Color("2")).Render("✔")
	if report.Status == StepFailed {
		mark = f.renderer.NewStyle().Foreground(lipgloss.Color("1")).Render("✖")
	}

	switch {
	case f.open && f.live:
		fmt.Fprintf(f.out, "\r%s %s\n", f.prefix, mark)
	case f.open:
		fmt.Fprintf(f.out, " %s\n", mark)
	default:
		fmt.Fprintf(f.out, "%s %s\n", f.prefix, mark)
	}
	f.open = false
}

func (f *DefaultFormatter) OnJobError(StepDescriptor, error) {}

func (f *DefaultFormatter) OnJobEnd(string, JobState) {}

// Interrupt ends the line of the running step so something else, such as a
// prompt, can use the terminal. The step's line is printed again when it settles.
func (f *DefaultFormatter) Interrupt() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.stopSpinner()
	if f.open {
		fmt.Fprintln(f.out)
		f.open = false
	}
}

func (f *DefaultFormatter) Head(message string) {
	box := f.renderer.NewStyle().
		Border(lipgloss.NormalBorder()).
		Padding(0, 1).
		Margin(1, 0).
		Render(message)
	fmt.Fprintln(f.out, box)
}

func (f *DefaultFormatter) Log(args ...interface{}) {
	fmt.Fprintln(f.out, args...)
}

func (f *DefaultFormatter) formatTitle(step StepDescriptor) string {
	date := f.renderer.NewStyle().Faint(true).Render(f.now().Format("15:04:05"))
	if step.Group != "" {
		return fmt.Sprintf("[%s] %s %s", date, f.group(step.Group), step.Title)
	}
	return fmt.Sprintf("[%s] %s", date, step.Title)
}

func (f *DefaultFormatter) formatGroup(group string) string {
	tag := "[" + group + "]"
	if color, ok := groupColors[group]; ok {
		return f.renderer.NewStyle().Foreground(color).Render(tag)
	}
	return tag
}

func isTerminal(w io.Writer) bool {
	file, ok := w.(*os.File)
	if !ok {
		return false
	}
	info, err := file.Stat()
	if err != nil {
		return false
	}
	return info.Mode()&os.ModeCharDevice != 0
}

// SilentFormatter records events in memory and prints nothing.
type SilentFormatter struct {
	mu     sync.Mutex
	Titles []string
	Events []string
	Output []string
}

func (s *SilentFormatter) OnJobStart(job string) {
	s.record("job:" + job)
}

func (s *SilentFormatter) OnStepStart(step StepDescriptor) {
	s.mu.Lock()
	s.Titles = append(s.Titles, step.Title)
	s.mu.Unlock()
	s.record("start:" + step.Title)
}

func (s *SilentFormatter) OnStepEnd(step StepDescriptor, report StepReport) {
	s.record(report.Status.String() + ":" + step.Title)
}

func (s *SilentFormatter) OnJobError(step StepDescriptor, err error) {
	s.record("error:" + step.Title + ":" + err.Error())
}

func (s *SilentFormatter) OnJobEnd(job string, state JobState) {
	s.record(state.String() + ":" + job)
}

func (s *SilentFormatter) Head(message string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.Output = append(s.Output, message)
}

func (s *SilentFormatter) Log(args ...interface{}) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.Output = append(s.Output, fmt.Sprint(args...))
}

func (s *SilentFormatter) record(event string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.Events = append(s.Events, event)
}

var (
	_ Formatter = (*DefaultFormatter)(nil)
	_ Formatter = (*SilentFormatter)(nil)
)
