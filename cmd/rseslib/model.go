package main

import (
	"fmt"
	"net/url"
	"os"
	"strconv"
	"strings"

	"github.com/awojna/Rseslib-sub001/knn"
	"github.com/awojna/Rseslib-sub001/store"
	"github.com/awojna/Rseslib-sub001/store/redisstore"
	"gopkg.in/redis.v5"
)

const modelFlagUsage = "path to a model file, a directory holding models or a Redis URL (redis://[:password@]host:port[/db]) where models are kept"

type modelConfig struct {
	location string
	id       string
	prefix   string
}

/*
openStore returns the store of models at the location, or nil if the location
is a single model file.
*/
func (mc *modelConfig) openStore() (store.Store, error) {
	if strings.HasPrefix(mc.location, "redis://") {
		u, err := url.Parse(mc.location)
		if err != nil {
			return nil, fmt.Errorf("parsing redis url %s: %v", mc.location, err)
		}
		opts := &redis.Options{Addr: u.Host}
		if u.User != nil {
			opts.Password, _ = u.User.Password()
		}
		if db := strings.Trim(u.Path, "/"); db != "" {
			opts.DB, err = strconv.Atoi(db)
			if err != nil {
				return nil, fmt.Errorf("parsing redis db number %q: %v", db, err)
			}
		}
		return redisstore.New(redis.NewClient(opts), mc.prefix), nil
	}
	if info, err := os.Stat(mc.location); err == nil && info.IsDir() {
		return store.NewFileStore(mc.location)
	}
	return nil, nil
}

func (rcc *rootCmdConfig) saveModel(mc *modelConfig, c *knn.Classifier) error {
	st, err := mc.openStore()
	if err != nil {
		return err
	}
	if st == nil {
		return rcc.saveModelFile(mc.location, c)
	}
	defer st.Close(rcc.Context())
	rcc.Logf("Saving model into store at %s...", mc.location)
	id, err := knn.Save(rcc.Context(), st, c)
	if err != nil {
		return fmt.Errorf("saving model: %v", err)
	}
	fmt.Println(id)
	return nil
}

func (rcc *rootCmdConfig) saveModelFile(path string, c *knn.Classifier) error {
	f := os.Stdout
	if path != "" {
		rcc.Logf("Creating %s to save model...", path)
		var err error
		f, err = os.Create(path)
		if err != nil {
			return fmt.Errorf("creating model file %s: %v", path, err)
		}
		defer f.Close()
	}
	return c.Snapshot().Encode(f)
}

func (rcc *rootCmdConfig) loadModel(mc *modelConfig) (*knn.Classifier, error) {
	st, err := mc.openStore()
	if err != nil {
		return nil, err
	}
	if st != nil {
		defer st.Close(rcc.Context())
		if mc.id == "" {
			return nil, fmt.Errorf("required model-id flag was not set to load a model from %s", mc.location)
		}
		rcc.Logf("Loading model %s from store at %s...", mc.id, mc.location)
		return knn.Load(rcc.Context(), st, mc.id, rcc)
	}
	rcc.Logf("Loading model from %s...", mc.location)
	f, err := os.Open(mc.location)
	if err != nil {
		return nil, fmt.Errorf("opening model file %s: %v", mc.location, err)
	}
	defer f.Close()
	snap, err := knn.DecodeSnapshot(f)
	if err != nil {
		return nil, fmt.Errorf("loading model from %s: %v", mc.location, err)
	}
	return knn.Rebuild(rcc.Context(), snap, rcc)
}
