// memberform-cli walks a gym operator through a member registration at the
// terminal and submits it to the backend.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"log/slog"
	"mime"
	"os"
	"path/filepath"
	"strings"

	"github.com/AlecAivazis/survey/v2"
	"github.com/AlecAivazis/survey/v2/terminal"

	memberform "github.com/kurlclub/kurlclub-forms"
	"github.com/kurlclub/kurlclub-forms/pkg/member"
	"github.com/kurlclub/kurlclub-forms/pkg/refdata"
	"github.com/kurlclub/kurlclub-forms/pkg/schema"
	"github.com/kurlclub/kurlclub-forms/pkg/submit"
	"github.com/kurlclub/kurlclub-forms/pkg/value"
	"github.com/kurlclub/kurlclub-forms/pkg/widgets"
)

func main() {
	baseURL := flag.String("base-url", "", "backend base URL")
	gymID := flag.Int64("gym", 0, "gym ID to register the member under")
	profile := flag.String("profile", string(member.ProfileFull), "intake profile")
	region := flag.String("region", "", "default phone region, e.g. IN")
	verbose := flag.Bool("verbose", false, "log requests to stderr")
	flag.Parse()

	if *baseURL == "" || *gymID == 0 {
		flag.Usage()
		os.Exit(2)
	}

	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: logLevel(*verbose),
	}))

	form, store, err := buildForm(*baseURL, *gymID, member.Profile(*profile), *region, logger)
	if err != nil {
		log.Fatalf("setup failed: %v", err)
	}

	ctx := context.Background()
	if err := run(ctx, form, store, *gymID); err != nil {
		if errors.Is(err, terminal.InterruptErr) {
			form.Abandon()
			fmt.Fprintln(os.Stderr, "registration abandoned")
			os.Exit(1)
		}
		log.Fatalf("registration failed: %v", err)
	}
}

func logLevel(verbose bool) slog.Level {
	if verbose {
		return slog.LevelDebug
	}
	return slog.LevelWarn
}

func buildForm(baseURL string, gymID int64, profile member.Profile, region string, logger *slog.Logger) (*memberform.Form, *refdata.Store, error) {
	fetcher, err := refdata.NewHTTPFetcher(baseURL, refdata.WithLogger(logger))
	if err != nil {
		return nil, nil, err
	}
	store, err := refdata.NewStore(fetcher, refdata.WithStoreLogger(logger))
	if err != nil {
		return nil, nil, err
	}
	submitter, err := submit.New(baseURL, submit.WithLogger(logger))
	if err != nil {
		return nil, nil, err
	}

	options := []memberform.Option{
		memberform.WithProfile(profile),
		memberform.WithStore(store),
		memberform.WithSubmitter(submitter),
		memberform.WithLogger(logger),
	}
	if region != "" {
		options = append(options, memberform.WithRegistry(
			widgets.NewRegistry(widgets.WithDefaultRegion(region))))
	}
	form, err := memberform.New(gymID, options...)
	return form, store, err
}

func run(ctx context.Context, form *memberform.Form, store *refdata.Store, gymID int64) error {
	if form.OptionsStatus() != refdata.StatusReady {
		fmt.Println("Loading gym options...")
		if _, err := form.LoadOptions(ctx); err != nil {
			return fmt.Errorf("could not load gym options: %w", err)
		}
	}

	for _, field := range form.Schema().Fields() {
		if err := promptField(form, store, gymID, field); err != nil {
			return err
		}
	}

	for {
		result := form.Validate()
		if result.Valid() {
			break
		}
		fmt.Println()
		for key, msg := range result.FieldErrors() {
			fmt.Printf("  %s: %s\n", key, msg)
		}
		fmt.Println()
		for _, field := range form.Schema().Fields() {
			if _, failed := result.FieldError(field.Key); !failed {
				continue
			}
			if err := promptField(form, store, gymID, field); err != nil {
				return err
			}
		}
	}

	info, err := form.Register(ctx)
	if err != nil {
		var verr *memberform.ValidationFailedError
		if errors.As(err, &verr) {
			for key, msg := range verr.Result.FieldErrors() {
				fmt.Printf("  %s: %s\n", key, msg)
			}
		}
		return err
	}
	fmt.Println(info.Message)
	return nil
}

func promptField(form *memberform.Form, store *refdata.Store, gymID int64, field schema.FieldDescriptor) error {
	for {
		raw, err := askField(form, store, gymID, field)
		if err != nil {
			return err
		}
		if err := form.SetValue(field.Key, raw); err != nil {
			var cerr *widgets.CoercionError
			if errors.As(err, &cerr) {
				fmt.Printf("  %s\n", cerr.Message)
				continue
			}
			return err
		}
		return nil
	}
}

func askField(form *memberform.Form, store *refdata.Store, gymID int64, field schema.FieldDescriptor) (widgets.Input, error) {
	message := field.Label
	if field.Required {
		message += " *"
	}
	current, _ := form.Session().Display(field.Key)

	switch field.Kind {
	case schema.KindSelect, schema.KindMultiSelect:
		labels, values := fieldOptions(store, gymID, field)
		if len(labels) == 0 {
			return widgets.Input{}, fmt.Errorf("no options available for %s", field.Label)
		}
		if field.Kind == schema.KindMultiSelect {
			var picked []string
			err := survey.AskOne(&survey.MultiSelect{Message: message, Options: labels}, &picked)
			if err != nil {
				return widgets.Input{}, err
			}
			return widgets.Selections(valuesFor(picked, labels, values)...), nil
		}
		if !field.Required {
			labels = append([]string{"(none)"}, labels...)
			values = append([]string{""}, values...)
		}
		var picked string
		err := survey.AskOne(&survey.Select{Message: message, Options: labels}, &picked)
		if err != nil {
			return widgets.Input{}, err
		}
		return widgets.Text(values[indexOf(labels, picked)]), nil

	case schema.KindCheckbox:
		var checked bool
		err := survey.AskOne(&survey.Confirm{Message: message}, &checked)
		if err != nil {
			return widgets.Input{}, err
		}
		if checked {
			return widgets.Text("on"), nil
		}
		return widgets.Text("off"), nil

	case schema.KindTextarea:
		var text string
		err := survey.AskOne(&survey.Multiline{Message: message, Default: current}, &text)
		return widgets.Text(text), err

	case schema.KindFile, schema.KindComputed:
		var path string
		err := survey.AskOne(&survey.Input{
			Message: message,
			Help:    "path to the file, empty to skip",
		}, &path)
		if err != nil {
			return widgets.Input{}, err
		}
		path = strings.TrimSpace(path)
		if path == "" {
			return widgets.Input{}, nil
		}
		attachment, err := readAttachment(path)
		if err != nil {
			fmt.Printf("  %v\n", err)
			return widgets.Input{}, nil
		}
		return widgets.FileInput(attachment), nil

	default:
		help := ""
		if field.Kind == schema.KindDate {
			help = "DD/MM/YYYY"
		}
		var text string
		err := survey.AskOne(&survey.Input{Message: message, Default: current, Help: help}, &text)
		return widgets.Text(text), err
	}
}

// fieldOptions resolves the selectable options, preferring the static set and
// falling back to the loaded reference data.
func fieldOptions(store *refdata.Store, gymID int64, field schema.FieldDescriptor) (labels, values []string) {
	options := field.Constraints.Options
	if len(options) == 0 && field.Constraints.OptionSource != "" {
		options, _ = store.View(gymID).Options(field.Constraints.OptionSource)
	}
	for _, option := range options {
		labels = append(labels, option.Label)
		values = append(values, option.Value)
	}
	return labels, values
}

func valuesFor(picked, labels, values []string) []string {
	out := make([]string, 0, len(picked))
	for _, label := range picked {
		if i := indexOf(labels, label); i >= 0 {
			out = append(out, values[i])
		}
	}
	return out
}

func indexOf(options []string, target string) int {
	for i, option := range options {
		if option == target {
			return i
		}
	}
	return -1
}

func readAttachment(path string) (value.Attachment, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return value.Attachment{}, err
	}
	mimeType := mime.TypeByExtension(filepath.Ext(path))
	if i := strings.IndexByte(mimeType, ';'); i >= 0 {
		mimeType = mimeType[:i]
	}
	return value.Attachment{
		Data:     data,
		Filename: filepath.Base(path),
		MIMEType: mimeType,
	}, nil
}
