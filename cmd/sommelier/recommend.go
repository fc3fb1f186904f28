package main

import (
	"os"

	"github.com/goccy/go-json"
	"github.com/spf13/cobra"

	"github.com/rushteam/sommelier/recommend"
)

var (
	recommendUser string
	demoClusters  []int
)

var recommendCmd = &cobra.Command{
	Use:   "recommend",
	Short: "Recommend a batch of wines from the user's feedback history",
	RunE: func(cmd *cobra.Command, _ []string) error {
		return runRecommend(cmd, recommendUser, nil)
	},
}

var demoCmd = &cobra.Command{
	Use:   "demo",
	Short: "Recommend a batch around the given clusters without any history",
	RunE: func(cmd *cobra.Command, _ []string) error {
		return runRecommend(cmd, "", demoClusters)
	},
}

func init() {
	recommendCmd.Flags().StringVarP(&recommendUser, "user", "u", "", "user id")
	_ = recommendCmd.MarkFlagRequired("user")

	demoCmd.Flags().IntSliceVar(&demoClusters, "clusters", nil, "clusters for the regular slots, e.g. 3,7")
	_ = demoCmd.MarkFlagRequired("clusters")
}

func runRecommend(cmd *cobra.Command, userID string, clusters []int) error {
	ctx := cmd.Context()
	svc, err := openService(ctx)
	if err != nil {
		return err
	}
	defer svc.Close()

	batch, err := svc.Recommend(ctx, userID, clusters)
	if err != nil {
		return err
	}
	return printBatch(batch)
}

func printBatch(batch *recommend.Batch) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(batch)
}
