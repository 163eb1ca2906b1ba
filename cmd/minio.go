package cmd

import (
	"fmt"
	"log"

	"pulsegram/config"
	"pulsegram/storage"

	"github.com/spf13/cobra"
)

var minioCmd = &cobra.Command{
	Use:   "minio",
	Short: "Check the avatar object store",
	Long:  `Connects to MinIO, ensures the avatar bucket exists and prints basic bucket info.`,
	Run: func(cmd *cobra.Command, args []string) {
		cfg := config.Load()
		fmt.Printf("MinIO: %s, Bucket: %s\n", cfg.MinioEndpoint, cfg.MinioBucket)

		if err := storage.InitMinio(cfg); err != nil {
			log.Fatalf("Failed to connect to MinIO: %v", err)
		}
		fmt.Println("MinIO connection OK, avatar bucket is ready")
	},
}

func init() {
	rootCmd.AddCommand(minioCmd)
}
