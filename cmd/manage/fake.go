package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/ChaoPei/flasky/internal/application"
	"github.com/ChaoPei/flasky/internal/container"
)

var (
	fakeUsers int
	fakePosts int
	fakeSeed  uint64
)

var fakeCmd = &cobra.Command{
	Use:   "fake",
	Short: "Generate fake users and posts",
	Long: `Generate confirmed users with the default role and posts written by
random existing users. Every fake account uses the password "` + application.FakeDataPassword + `".`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if cfg.StoreDriver == "memory" {
			return fmt.Errorf("fake data needs a persistent store; STORE_DRIVER is memory")
		}
		store, pool, err := container.OpenStore(cmd.Context(), cfg, logger)
		if err != nil {
			return err
		}
		if pool != nil {
			defer pool.Close()
		}

		seed := fakeSeed
		if seed == 0 {
			seed = uint64(time.Now().UnixNano())
		}
		f := application.NewFaker(store, seed, logger)
		users, err := f.Users(cmd.Context(), fakeUsers)
		if err != nil {
			return err
		}
		posts, err := f.Posts(cmd.Context(), fakePosts)
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "created %d users and %d posts\n", users, posts)
		return nil
	},
}

func init() {
	fakeCmd.Flags().IntVar(&fakeUsers, "users", 100, "Number of users to create")
	fakeCmd.Flags().IntVar(&fakePosts, "posts", 100, "Number of posts to create")
	fakeCmd.Flags().Uint64Var(&fakeSeed, "seed", 0, "Random seed (0 picks one from the clock)")
}
