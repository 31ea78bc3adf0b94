package cli

import (
	"context"
	"fmt"
	"net/http"
	"os"

	"github.com/dmitrijs2005/carmarket/internal/client/api"
	"github.com/dmitrijs2005/carmarket/internal/common"
	"github.com/dmitrijs2005/carmarket/internal/netx"
	"github.com/spf13/cobra"
)

// uploadImage is a test seam for netx.UploadToPresignedURL.
var uploadImage = netx.UploadToPresignedURL

func newAddCarCmd(app *App) *cobra.Command {
	var (
		in     api.CarRequest
		token  string
		images []string
	)

	cmd := &cobra.Command{
		Use:   "add-car",
		Short: "Create a car listing and upload its images",
		RunE: func(cmd *cobra.Command, _ []string) error {
			token, err := tokenFrom(token)
			if err != nil {
				return err
			}
			if len(images) > common.MaxListingImages {
				return fmt.Errorf("at most %d images per listing", common.MaxListingImages)
			}

			// read everything up front so a bad path fails before the listing exists
			files := make([][]byte, len(images))
			for i, path := range images {
				if files[i], err = os.ReadFile(path); err != nil {
					return err
				}
			}

			if in.Title, err = app.prompt(cmd, in.Title, "Title"); err != nil {
				return err
			}
			if in.Description == "" {
				if in.Description, err = GetMultiline(app.reader, "Description", cmd.ErrOrStderr()); err != nil {
					return err
				}
			}
			in.ImageCount = len(files)

			res, err := app.api.AddCar(cmd.Context(), token, in)
			if err != nil {
				return err
			}
			if len(res.Uploads) != len(files) {
				return fmt.Errorf("server returned %d upload slots for %d images", len(res.Uploads), len(files))
			}

			for i, task := range res.Uploads {
				if err := app.upload(cmd.Context(), task, files[i]); err != nil {
					return fmt.Errorf("uploading %s: %w", images[i], err)
				}
				fmt.Fprintf(cmd.ErrOrStderr(), "uploaded %s\n", images[i])
			}

			fmt.Fprintln(cmd.OutOrStdout(), res.Car.ID)
			return nil
		},
	}

	f := cmd.Flags()
	f.StringVar(&token, "token", "", "session token (defaults to $"+TokenEnv+")")
	f.StringVar(&in.Title, "title", "", "listing title")
	f.StringVar(&in.Description, "description", "", "listing description")
	f.Int64Var(&in.Phone, "phone", 0, "contact phone (defaults to the account phone)")
	f.StringVar(&in.Tags.CarType, "car-type", "", "car type, e.g. sedan")
	f.StringVar(&in.Tags.Company, "company", "", "manufacturer")
	f.StringVar(&in.Tags.Model, "model", "", "model")
	f.StringVar(&in.Tags.Color, "color", "", "color")
	f.StringVar(&in.Tags.FuelType, "fuel-type", "", "fuel type")
	f.StringVar(&in.Tags.Year, "year", "", "model year")
	f.StringSliceVar(&images, "image", nil, "image file to upload (repeatable)")
	return cmd
}

func (a *App) upload(ctx context.Context, task api.UploadTask, data []byte) error {
	ctx, cancel := context.WithTimeout(ctx, a.config.RequestTimeout)
	defer cancel()
	return uploadImage(ctx, a.api.HTTPClient(), task.URL, data, http.DetectContentType(data))
}
