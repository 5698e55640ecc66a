package derive

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"thoreinstein.com/specforge/pkg/spec"
)

// ConsoleCollaborator walks a human stakeholder through confirming or
// extending a proposed state summary on the terminal.
type ConsoleCollaborator struct {
	reader io.Reader
	writer io.Writer
}

// NewConsoleCollaborator creates a collaborator bound to stdin/stdout.
func NewConsoleCollaborator() *ConsoleCollaborator {
	return &ConsoleCollaborator{reader: os.Stdin, writer: os.Stdout}
}

// NewConsoleCollaboratorWithIO creates a collaborator with custom streams,
// used in tests.
func NewConsoleCollaboratorWithIO(reader io.Reader, writer io.Writer) *ConsoleCollaborator {
	return &ConsoleCollaborator{reader: reader, writer: writer}
}

// Confirm presents the proposal, lets the stakeholder append extra items and
// processes, and records an approval note.
func (c *ConsoleCollaborator) Confirm(_ context.Context, proposal Proposal) (*Result, error) {
	in := bufio.NewReader(c.reader)

	label := "AS-IS"
	if proposal.Kind == KindToBe {
		label = "TO-BE"
	}

	fmt.Fprintln(c.writer)
	fmt.Fprintf(c.writer, "BA Agent: I'd like to confirm the current %s understanding.\n", label)
	fmt.Fprintln(c.writer, proposal.Question)
	fmt.Fprintf(c.writer, "\nProposed %s summary:\n", label)
	for index, item := range proposal.Items {
		fmt.Fprintf(c.writer, "  %d. %s\n", index+1, item)
	}

	items := make([]string, 0, len(proposal.Items))
	for _, item := range proposal.Items {
		if strings.TrimSpace(item) != "" {
			items = append(items, item)
		}
	}
	for {
		addition, err := c.prompt(in, fmt.Sprintf("Add another %s detail (leave blank to continue): ", label))
		if err != nil || addition == "" {
			break
		}
		items = append(items, addition)
	}

	processes := cloneProcesses(proposal.Processes)
	fmt.Fprintf(c.writer, "\nIdentified %s processes:\n", label)
	if len(processes) == 0 {
		fmt.Fprintln(c.writer, "  (none captured yet)")
	}
	for index, process := range processes {
		fmt.Fprintf(c.writer, "  %d. %s\n", index+1, process.Name)
		if len(process.HappyPath) > 0 {
			fmt.Fprintln(c.writer, "     Happy path:")
			for stepNum, step := range process.HappyPath {
				fmt.Fprintf(c.writer, "       %d. %s\n", stepNum+1, step)
			}
		}
		if len(process.UnhappyPath) > 0 {
			fmt.Fprintln(c.writer, "     Unhappy path / exceptions:")
			for stepNum, step := range process.UnhappyPath {
				fmt.Fprintf(c.writer, "       %d. %s\n", stepNum+1, step)
			}
		}
	}
	for {
		name, err := c.prompt(in, fmt.Sprintf("Add another %s process (leave blank to continue): ", label))
		if err != nil || name == "" {
			break
		}
		happyInput, err := c.prompt(in, "  Enter happy-path steps separated by ';' (optional): ")
		if err != nil {
			break
		}
		unhappyInput, err := c.prompt(in, "  Enter unhappy-path steps separated by ';' (optional): ")
		if err != nil {
			break
		}
		processes = append(processes, spec.Process{
			Name:        name,
			HappyPath:   splitSteps(happyInput),
			UnhappyPath: splitSteps(unhappyInput),
		})
	}

	comment, _ := c.prompt(in, "Stakeholder response/approval note: ")
	if comment == "" {
		comment = "Understood and approved."
	}

	return &Result{
		Items:              items,
		Processes:          processes,
		StakeholderComment: comment,
	}, nil
}

func (c *ConsoleCollaborator) prompt(in *bufio.Reader, label string) (string, error) {
	fmt.Fprint(c.writer, label)
	line, err := in.ReadString('\n')
	if err != nil && line == "" {
		return "", err
	}
	return strings.TrimSpace(line), nil
}

func splitSteps(input string) []string {
	var steps []string
	for _, step := range strings.Split(input, ";") {
		if step = strings.TrimSpace(step); step != "" {
			steps = append(steps, step)
		}
	}
	return steps
}
