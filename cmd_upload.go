package main

import (
	"fmt"
	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"
	"os"
	"os/signal"
	"timeline_station/dal"
	"timeline_station/logic"
	"timeline_station/shared"
	"timeline_station/texts"
)

func newUploadCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "upload <username> <file>",
		Short: "Upload a picture for an account and print its media URL",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return upload(cmd, args[0], args[1])
		},
	}
}

func upload(cmd *cobra.Command, username, fileName string) error {

	var repo dal.IRepo
	var uploader logic.IUploader
	var txt texts.ITexts
	var cfg *shared.Config
	if err := populate(&repo, &uploader, &txt, &cfg); err != nil {
		return err
	}
	defer repo.Close()

	acct, err := repo.GetAccount(username)
	if err != nil {
		return err
	}
	if acct == nil {
		return fmt.Errorf("no such account: %s", username)
	}
	data, err := os.ReadFile(fileName)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	host, _ := shared.GetHostName(cfg.UploadUrl)
	fmt.Fprintln(out, txt.WithVals(texts.Uploading, map[string]string{
		"size": humanize.Bytes(uint64(len(data))),
		"host": host,
	}))

	var mediaUrl string
	var uploadErr error
	h := uploader.Upload(acct, data,
		func(fraction float64) {
			fmt.Fprintf(out, "\r%3.0f%%", fraction*100)
		},
		func(url string, err error) {
			mediaUrl, uploadErr = url, err
		})

	interrupt := make(chan os.Signal, 1)
	signal.Notify(interrupt, os.Interrupt)
	defer signal.Stop(interrupt)

	select {
	case <-h.Done():
	case <-interrupt:
		h.Cancel()
		h.Wait()
		fmt.Fprintln(out)
		return shared.ErrCancelled
	}
	fmt.Fprintln(out)
	if uploadErr != nil {
		return uploadErr
	}
	fmt.Fprintln(out, mediaUrl)
	return nil
}
