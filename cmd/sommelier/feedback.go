package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/rushteam/sommelier/core"
)

var (
	feedbackUser   string
	feedbackIndex  int
	feedbackAccept bool
	feedbackReject bool
)

var feedbackCmd = &cobra.Command{
	Use:   "feedback",
	Short: "Record whether the user accepted or rejected a wine",
	RunE: func(cmd *cobra.Command, _ []string) error {
		if feedbackAccept == feedbackReject {
			return fmt.Errorf("%w: exactly one of --accept or --reject is required", core.ErrInvalidInput)
		}
		fb := core.FeedbackReject
		if feedbackAccept {
			fb = core.FeedbackAccept
		}

		ctx := cmd.Context()
		svc, err := openService(ctx)
		if err != nil {
			return err
		}
		defer svc.Close()

		_, err = svc.Feedback(ctx, feedbackUser, feedbackIndex, fb)
		return err
	},
}

func init() {
	feedbackCmd.Flags().StringVarP(&feedbackUser, "user", "u", "", "user id")
	feedbackCmd.Flags().IntVarP(&feedbackIndex, "index", "i", -1, "catalog index (true_index) of the wine")
	feedbackCmd.Flags().BoolVar(&feedbackAccept, "accept", false, "the user liked the wine")
	feedbackCmd.Flags().BoolVar(&feedbackReject, "reject", false, "the user did not like the wine")
	_ = feedbackCmd.MarkFlagRequired("user")
	_ = feedbackCmd.MarkFlagRequired("index")
}
