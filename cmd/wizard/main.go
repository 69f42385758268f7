package main

import (
	"bufio"
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"strconv"
	"strings"

	"treasuryroi/internal/modules/report"
	"treasuryroi/internal/modules/wizard"
	"treasuryroi/internal/wizardclient"
)

// Interactive terminal walkthrough of the survey wizard. Mostly a
// development aid: it exercises the same session state machine and
// submit/poll protocol as the web front end.
func main() {
	baseURL := flag.String("url", "http://localhost:8080", "API base URL")
	outFile := flag.String("out", "", "write the report HTML to this file")
	flag.Parse()

	cfg := wizard.DefaultConfig()
	session := wizard.NewSession(cfg)
	in := bufio.NewScanner(os.Stdin)

	for {
		step := session.CurrentStep()
		printProgress(session)

		for _, field := range cfg.StepFields[step] {
			promptField(in, session, field)
		}

		if step == session.TotalSteps() {
			inputs, res := session.SubmitFinal()
			if !res.Valid {
				printErrors(res)
				continue
			}
			submit(*baseURL, *outFile, inputs)
			session.FinishSubmit()
			return
		}

		res := session.Next()
		if !res.Valid {
			printErrors(res)
		}
	}
}

func printProgress(s *wizard.Session) {
	states := s.Progress()
	marks := make([]string, len(states))
	for i, st := range states {
		switch st {
		case wizard.StepCompleted:
			marks[i] = "[x]"
		case wizard.StepActive:
			marks[i] = "[*]"
		default:
			marks[i] = "[ ]"
		}
	}
	fmt.Printf("\nStep %d/%d  %s\n", s.CurrentStep(), s.TotalSteps(), strings.Join(marks, " "))
}

func promptField(in *bufio.Scanner, s *wizard.Session, field string) {
	rule, ok := wizard.RuleFor(field)
	if !ok {
		return
	}

	label := rule.Label
	if rule.Kind == wizard.KindMultiChoice {
		label += " (comma-separated)"
	}
	if !rule.Required {
		label += " (optional)"
	}

	fmt.Printf("%s: ", label)
	if !in.Scan() {
		os.Exit(0)
	}
	raw := strings.TrimSpace(in.Text())

	switch rule.Kind {
	case wizard.KindNumber:
		if raw == "" {
			return
		}
		v, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			fmt.Println("  not a number, leaving empty")
			return
		}
		s.Set(field, v)
	case wizard.KindMultiChoice:
		var values []string
		for _, part := range strings.Split(raw, ",") {
			if p := strings.TrimSpace(part); p != "" {
				values = append(values, p)
			}
		}
		s.Set(field, values)
	default:
		s.Set(field, raw)
	}
}

func printErrors(res wizard.StepResult) {
	fmt.Println(res.StepError)
	for _, fe := range res.FieldErrors {
		fmt.Printf("  - %s: %s\n", fe.Field, fe.Message)
	}
}

func submit(baseURL, outFile string, inputs wizard.FormInputs) {
	fmt.Println("\nSubmitting...")

	client := wizardclient.New(wizardclient.Options{BaseURL: baseURL})
	outcome, err := client.SubmitAndWait(context.Background(), report.SubmitReportRequest{FormInputs: inputs})
	if err != nil {
		var te *wizardclient.TimeoutError
		if errors.As(err, &te) {
			fmt.Println(te.UserMessage())
			os.Exit(1)
		}
		var re *wizardclient.RequestError
		if errors.As(err, &re) {
			fmt.Println(re.Message)
			os.Exit(1)
		}
		fmt.Println("Submission failed:", err)
		os.Exit(1)
	}

	if outcome.Result != nil {
		printResult(outcome.Result)
		if outFile != "" && outcome.Result.ReportHTML != "" {
			writeReport(outFile, outcome.Result.ReportHTML)
		}
		return
	}

	fmt.Println("Received a pre-rendered report page.")
	if outFile != "" {
		writeReport(outFile, outcome.RawHTML)
	}
}

func printResult(res *report.Result) {
	fmt.Println("\nProjected annual benefit:")
	fmt.Printf("  conservative: $%.0f\n", float64(res.Scenarios.Conservative.TotalAnnualBenefit))
	fmt.Printf("  base:         $%.0f\n", float64(res.Scenarios.Base.TotalAnnualBenefit))
	fmt.Printf("  optimistic:   $%.0f\n", float64(res.Scenarios.Optimistic.TotalAnnualBenefit))
	fmt.Printf("\nRecommended: %s (%.0f%% confidence)\n", res.Recommendation.CategoryInfo.Label, res.Recommendation.Confidence*100)
	fmt.Println(res.Recommendation.Reasoning)
}

func writeReport(path, html string) {
	if err := os.WriteFile(path, []byte(html), 0o644); err != nil {
		fmt.Println("Could not write report:", err)
		return
	}
	fmt.Println("Report written to", path)
}
