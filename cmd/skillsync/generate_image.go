package main

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/jingkaihe/skillsync/pkg/imagegen"
	"github.com/jingkaihe/skillsync/pkg/presenter"
)

var generateImageCmd = &cobra.Command{
	Use:   "generate-image <prompt>",
	Short: "Generate an image with Gemini on Vertex AI",
	Long: `Generate an image from a text prompt, optionally editing an existing
image. Requires GOOGLE_CLOUD_PROJECT (or CLOUDSDK_CORE_PROJECT) and
application default credentials.`,
	Args: cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		model, _ := cmd.Flags().GetString("model")
		input, _ := cmd.Flags().GetString("input")
		output, _ := cmd.Flags().GetString("output")
		aspectRatio, _ := cmd.Flags().GetString("aspect-ratio")
		size, _ := cmd.Flags().GetString("size")

		generator, err := imagegen.NewGenerator(cmd.Context(), model)
		if err != nil {
			presenter.Error(err, "Image generation is not configured")
			os.Exit(1)
		}

		path, err := generator.Generate(cmd.Context(), args[0], imagegen.Options{
			InputImage:  input,
			OutputPath:  output,
			AspectRatio: aspectRatio,
			Size:        size,
		})
		if err != nil {
			presenter.Error(err, "Failed to generate image")
			os.Exit(1)
		}
		presenter.Success("Saved image: " + path)
	},
}

func init() {
	generateImageCmd.Flags().StringP("model", "m", imagegen.DefaultModel, "Model to use")
	generateImageCmd.Flags().StringP("input", "i", "", "Input image for image-to-image generation")
	generateImageCmd.Flags().StringP("output", "o", "", "Output path (default a temp file)")
	generateImageCmd.Flags().String("aspect-ratio", "16:9", "Aspect ratio (16:9, 1:1, 9:16, 4:3, 3:4)")
	generateImageCmd.Flags().String("size", "2K", "Image size (1K or 2K)")
	rootCmd.AddCommand(generateImageCmd)
}
