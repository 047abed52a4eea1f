package main

import (
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"strings"

	"github.com/spf13/cobra"

	"github.com/paneprobe/paneprobe"
	"github.com/paneprobe/paneprobe/storage/fs"
)

var listenAddr string

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve stored run reports over HTTP",
	Long: `Use the serve command to start a minimal http server that
exposes the stored run reports from the configured storage
provider as JSON. GET /index.json returns the name/timestamp
index; GET /<name> returns one run report.

By default, the paneprobe.json configuration file will be
loaded and used.`,
	Run: func(cmd *cobra.Command, args []string) {
		reader, err := storageReaderConfig()
		if err != nil {
			log.Fatal(err)
		}

		mux := http.NewServeMux()
		mux.HandleFunc("/", serveHandler(reader))

		log.Printf("serving reports on %s", listenAddr)
		if err := http.ListenAndServe(listenAddr, mux); err != nil {
			log.Fatal(err)
		}
	},
}

func serveHandler(reader paneprobe.StorageReader) http.HandlerFunc {
	writeError := func(w http.ResponseWriter, err error) {
		response := struct {
			Error struct {
				Message string
			}
		}{}
		response.Error.Message = err.Error()
		json.NewEncoder(w).Encode(response)
	}
	return func(w http.ResponseWriter, r *http.Request) {
		requestedFile := strings.TrimLeft(r.URL.Path, "/")
		index, err := reader.GetIndex()
		if err != nil {
			writeError(w, err)
			return
		}
		if requestedFile == "" || requestedFile == fs.IndexName {
			json.NewEncoder(w).Encode(index)
			return
		}
		if _, ok := index[requestedFile]; ok {
			report, err := reader.Fetch(requestedFile)
			if err != nil {
				writeError(w, err)
				return
			}
			json.NewEncoder(w).Encode(report)
			return
		}
		writeError(w, fmt.Errorf("report not found: %s", requestedFile))
	}
}

func storageReaderConfig() (paneprobe.StorageReader, error) {
	h := loadHarness()
	if h.Storage == nil {
		return nil, fmt.Errorf("no storage configuration found")
	}
	reader, ok := h.Storage.(paneprobe.StorageReader)
	if !ok {
		return nil, fmt.Errorf("configured storage type does not have reading capabilities")
	}
	return reader, nil
}

func init() {
	RootCmd.AddCommand(serveCmd)
	serveCmd.Flags().StringVarP(&listenAddr, "listen", "", ":3000", "The listen address for the HTTP server")
}
