// Package cli implements the command surface over the app core.
package cli

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"kichat/app"
	"kichat/manager"
	"kichat/model"
	"kichat/storage"
)

// Options carries the global flags into every command.
type Options struct {
	DataDir    string
	PluginsDir string
}

func setup(ctx context.Context, opts Options) (*app.App, error) {
	a, err := app.New(app.Options{
		DataDir:    opts.DataDir,
		PluginsDir: opts.PluginsDir,
	})
	if err != nil {
		return nil, err
	}
	if err := a.Bootstrap(ctx); err != nil {
		a.Close()
		return nil, err
	}
	return a, nil
}

// Chat runs the interactive streaming loop. Each exchange is appended to
// the conversation, which is persisted after every assistant reply.
func Chat(ctx context.Context, opts Options, conversationID string) error {
	a, err := setup(ctx, opts)
	if err != nil {
		return err
	}
	defer a.Close()

	conv := &storage.Conversation{}
	if conversationID != "" {
		conv, err = a.Conversations.Load(conversationID)
		if err != nil {
			return err
		}
		// Resume on the pair the conversation was held with when possible.
		if conv.Provider != "" {
			if err := a.Manager.SetActive(conv.Provider, conv.Model); err == nil {
				a.Manager.Stage(conv.Provider)
				if err := a.Manager.Commit(ctx); err != nil {
					return err
				}
			}
		}
	}

	display := a.Manager.Status(ctx)
	fmt.Printf("%s\n", display.Label)
	if display.State != manager.StateHealthy {
		if display.Hint != "" {
			fmt.Printf("hint: %s\n", display.Hint)
		}
		return fmt.Errorf("no healthy provider; run 'kichat providers' for details")
	}
	fmt.Printf("model: %s\n\n", a.Manager.ActiveModel())

	providerID, _ := a.Manager.ActiveProvider()
	conv.Provider = providerID
	conv.Model = a.Manager.ActiveModel()

	scanner := bufio.NewScanner(os.Stdin)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	for {
		fmt.Print("> ")
		if !scanner.Scan() {
			break
		}
		input := strings.TrimSpace(scanner.Text())
		if input == "" {
			continue
		}
		if input == "/quit" || input == "/exit" {
			break
		}

		conv.Messages = append(conv.Messages, model.Message{
			Role:      model.RoleUser,
			Content:   input,
			Timestamp: time.Now(),
		})

		var reply strings.Builder
		err := a.Manager.StreamChat(ctx, conv.Messages, 0.7, 0, func(chunk string) error {
			reply.WriteString(chunk)
			fmt.Print(chunk)
			return nil
		})
		fmt.Println()
		if err != nil {
			fmt.Fprintf(os.Stderr, "error: %v\n", err)
			conv.Messages = conv.Messages[:len(conv.Messages)-1]
			continue
		}

		conv.Messages = append(conv.Messages, model.Message{
			Role:      model.RoleAssistant,
			Content:   reply.String(),
			Timestamp: time.Now(),
		})
		if err := a.Conversations.Save(conv); err != nil {
			fmt.Fprintf(os.Stderr, "warning: failed to save conversation: %v\n", err)
		}
	}

	return scanner.Err()
}

// Providers prints every registered provider with its status, the load
// failures, and the overall display state.
func Providers(ctx context.Context, opts Options) error {
	a, err := setup(ctx, opts)
	if err != nil {
		return err
	}
	defer a.Close()

	activeID, _ := a.Manager.ActiveProvider()
	for _, id := range a.Manager.Providers() {
		p, _ := a.Manager.Provider(id)
		cfg := p.Config()

		marker := " "
		if id == activeID {
			marker = "*"
		}
		line := fmt.Sprintf("%s %-12s %-12s %s", marker, id, cfg.Status, cfg.Name)
		if cfg.InitError != nil {
			line += fmt.Sprintf("  (%v)", cfg.InitError)
		}
		fmt.Println(line)
	}

	for name, msg := range a.Loader.Errors() {
		fmt.Printf("! %-12s failed: %s\n", name, msg)
	}

	display := a.Manager.Status(ctx)
	fmt.Printf("\nstatus: %s", display.Label)
	if display.Hint != "" {
		fmt.Printf(" (%s)", display.Hint)
	}
	fmt.Println()
	return nil
}

// Models lists the active provider's models as selectable keys.
func Models(ctx context.Context, opts Options) error {
	a, err := setup(ctx, opts)
	if err != nil {
		return err
	}
	defer a.Close()

	options, err := a.Manager.ModelOptions(ctx)
	if err != nil {
		return fmt.Errorf("failed to list models: %w", err)
	}
	if len(options) == 0 {
		fmt.Println("no models available; select a provider with 'kichat use <provider>'")
		return nil
	}

	active := manager.ModelKey(mustActive(a))
	for _, opt := range options {
		marker := " "
		if opt.Key == active {
			marker = "*"
		}
		fmt.Printf("%s %-40s %s\n", marker, opt.Key, opt.Label)
	}
	return nil
}

func mustActive(a *app.App) (string, string) {
	id, _ := a.Manager.ActiveProvider()
	return id, a.Manager.ActiveModel()
}

// Use switches the active provider, and optionally pins a model.
func Use(ctx context.Context, opts Options, providerID, modelID string) error {
	a, err := setup(ctx, opts)
	if err != nil {
		return err
	}
	defer a.Close()

	if modelID != "" {
		if err := a.Manager.SetActive(providerID, modelID); err != nil {
			return err
		}
	} else {
		a.Manager.Stage(providerID)
		if err := a.Manager.Commit(ctx); err != nil {
			return err
		}
	}

	display := a.Manager.Status(ctx)
	fmt.Printf("%s", display.Label)
	if m := a.Manager.ActiveModel(); m != "" {
		fmt.Printf(" / %s", m)
	}
	fmt.Println()
	return nil
}

// Set updates one provider setting through the app's routing: secrets to
// the env store, the rest to the settings file.
func Set(ctx context.Context, opts Options, providerID, key, value string) error {
	a, err := setup(ctx, opts)
	if err != nil {
		return err
	}
	defer a.Close()

	if err := a.UpdateSetting(ctx, providerID, key, value); err != nil {
		return err
	}
	fmt.Printf("set %s.%s\n", providerID, key)
	return nil
}

// Env reads or writes a secret in the env store directly.
func Env(ctx context.Context, opts Options, key, value string, write bool) error {
	a, err := setup(ctx, opts)
	if err != nil {
		return err
	}
	defer a.Close()

	if !write {
		v := a.Env.Get(key)
		if v == "" {
			fmt.Printf("%s is not set\n", key)
		} else {
			fmt.Printf("%s is set (%d chars)\n", key, len(v))
		}
		return nil
	}

	if err := a.Env.Set(key, value); err != nil {
		return err
	}
	if value == "" {
		fmt.Printf("removed %s\n", key)
	} else {
		fmt.Printf("saved %s\n", key)
	}
	return nil
}

// History lists stored conversations, newest first.
func History(ctx context.Context, opts Options) error {
	a, err := setup(ctx, opts)
	if err != nil {
		return err
	}
	defer a.Close()

	list, err := a.Conversations.List()
	if err != nil {
		return err
	}
	if len(list) == 0 {
		fmt.Println("no conversations yet")
		return nil
	}

	for _, meta := range list {
		fmt.Printf("%s  %-40s %s/%s  %d messages\n",
			meta.UpdatedAt.Format("2006-01-02 15:04"),
			meta.Title, meta.Provider, meta.Model, meta.MessageCount)
		fmt.Printf("    id: %s\n", meta.ID)
	}
	return nil
}

// Search finds messages containing the query across all conversations.
func Search(ctx context.Context, opts Options, query string) error {
	a, err := setup(ctx, opts)
	if err != nil {
		return err
	}
	defer a.Close()

	matches, err := a.Conversations.Search(query)
	if err != nil {
		return err
	}
	if len(matches) == 0 {
		fmt.Println("no matches")
		return nil
	}

	for _, m := range matches {
		fmt.Printf("%s [%s] %s\n", m.ConversationTitle, m.Role, m.Preview)
		fmt.Printf("    id: %s message: %d\n", m.ConversationID, m.MessageIndex)
	}
	return nil
}
