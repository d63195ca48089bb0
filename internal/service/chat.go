package service

import (
	"os"

	"agromitra/internal/app"
	"agromitra/internal/models"
	"agromitra/internal/tui"

	"github.com/spf13/cobra"
)

func (h *handlers) chatCommand() *cobra.Command {
	var message, imagePath string
	var history bool
	cmd := &cobra.Command{
		Use:   "chat",
		Short: "Talk to the farming assistant; interactive without --message or --image",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			chat := h.app.NewChat(h.env.Synth, h.env.Recognizer)

			if message == "" && imagePath == "" && !history {
				if !h.app.Store().State().IsAuthenticated {
					return fail(app.ErrNotAuthenticated)
				}
				return tui.RunChat(cmd.Context(), h.app, chat)
			}

			ctx, cancel := h.context(cmd)
			defer cancel()

			if history {
				if err := chat.LoadHistory(ctx); err != nil {
					return fail(err)
				}
				for _, msg := range chat.Messages() {
					h.printChatMessage(msg)
				}
				if message == "" && imagePath == "" {
					return nil
				}
			}

			var image []byte
			if imagePath != "" {
				var err error
				if image, err = os.ReadFile(imagePath); err != nil {
					return err
				}
			}
			reply, err := chat.Send(ctx, message, image)
			if reply != nil {
				h.printChatMessage(*reply)
			}
			return fail(err)
		},
	}
	cmd.Flags().StringVarP(&message, "message", "m", "", "send one message and print the reply")
	cmd.Flags().StringVar(&imagePath, "image", "", "attach a plant photo for disease detection")
	cmd.Flags().BoolVar(&history, "history", false, "print the stored chat history")
	return cmd
}

func (h *handlers) printChatMessage(msg models.ChatMessage) {
	if msg.IsUser {
		h.printf("You: %s\n", msg.Message)
		return
	}
	h.printf("%s %s\n", tui.Badge(tui.ClassificationLabel(msg.Classification), tui.Tint(msg.Classification)), msg.Response)
}
