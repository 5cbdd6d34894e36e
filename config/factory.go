package config

import (
	"context"
	"errors"

	"github.com/miguelusque/NVTabular/batch"
	"github.com/miguelusque/NVTabular/core"
	"github.com/miguelusque/NVTabular/dataset"
	"github.com/miguelusque/NVTabular/feature"
	"github.com/miguelusque/NVTabular/pkg/logging"
	"github.com/miguelusque/NVTabular/service"
	"github.com/miguelusque/NVTabular/store"
)

// InitLogging 按 logging 段初始化全局 logger
func (c *Config) InitLogging() {
	logging.Init(c.Logging)
}

// BuildSource 通过 dataset 注册表构建数据源；dataset.cache 为 true 时返回内存缓存
func (c *Config) BuildSource(ctx context.Context) (core.Source, error) {
	src, err := dataset.Build(c.Dataset.Type, c.Dataset.Config)
	if err != nil {
		return nil, err
	}
	if !c.Dataset.Cache {
		return src, nil
	}
	defer src.Close()
	cached, err := dataset.Materialize(ctx, src, c.batchSize())
	if err != nil {
		return nil, err
	}
	return cached, nil
}

// BuildTransforms 按顺序构建变换并组成 Workflow（尚未 fit）
func (c *Config) BuildTransforms() (*feature.Workflow, error) {
	if err := ValidateTransforms(c.Transforms); err != nil {
		return nil, err
	}
	ops := make([]feature.Op, 0, len(c.Transforms))
	for _, tc := range c.Transforms {
		op, err := BuildOp(tc.Type, tc.Config)
		if err != nil {
			return nil, err
		}
		ops = append(ops, op)
	}
	return feature.NewWorkflow(ops...), nil
}

// BuildStore 构建持久化存储；未配置时返回 nil, nil
func (c *Config) BuildStore() (core.Store, error) {
	if c.Store == nil {
		return nil, nil
	}
	return store.New(c.Store.Type, c.Store.Config)
}

// PrepareWorkflow 让 Workflow 可以直接用于变换：
// 配置了 store 时优先加载已保存的词表和统计量，任一缺失则在 src 上重新 fit 并写回。
func (c *Config) PrepareWorkflow(ctx context.Context, src core.Source, wf *feature.Workflow, st core.Store) error {
	log := logging.Component("config")
	if st != nil {
		prefix := ""
		if c.Store != nil {
			prefix = c.Store.Prefix
		}
		vs := feature.NewVocabStore(st, prefix)
		err := loadState(ctx, vs, wf)
		if err == nil {
			log.Info().Msg("loaded fitted transform state from store")
			return nil
		}
		if !core.IsNotFound(err) {
			return err
		}
		log.Info().Err(err).Msg("transform state missing, fitting")
		if err := wf.Fit(ctx, src, c.batchSize()); err != nil {
			return err
		}
		return saveState(ctx, vs, wf)
	}
	return wf.Fit(ctx, src, c.batchSize())
}

func loadState(ctx context.Context, vs *feature.VocabStore, wf *feature.Workflow) error {
	for _, op := range wf.Ops() {
		var err error
		switch o := op.(type) {
		case *feature.Categorify:
			err = vs.LoadCategorify(ctx, o)
		case *feature.Normalize:
			err = vs.LoadStats(ctx, o)
		case *feature.FillMissing:
			if o.Strategy != feature.FillConstant {
				err = vs.LoadStats(ctx, o)
			}
		}
		if err != nil {
			return err
		}
	}
	return nil
}

func saveState(ctx context.Context, vs *feature.VocabStore, wf *feature.Workflow) error {
	var errs []error
	for _, op := range wf.Ops() {
		switch o := op.(type) {
		case *feature.Categorify:
			errs = append(errs, vs.SaveCategorify(ctx, o))
		case *feature.Normalize:
			errs = append(errs, vs.SaveStats(ctx, o))
		case *feature.FillMissing:
			if o.Strategy != feature.FillConstant {
				errs = append(errs, vs.SaveStats(ctx, o))
			}
		}
	}
	return errors.Join(errs...)
}

func (c *Config) batchSize() int {
	if c.Loader.BatchSize > 0 {
		return c.Loader.BatchSize
	}
	return dataset.DefaultBatchSize
}

// BuildLoader 用 schema 与 loader 段构建 Loader；wf 可以为 nil
func (c *Config) BuildLoader(src core.Source, wf *feature.Workflow) (*dataset.Loader, error) {
	assembler, err := batch.NewAssembler(c.Schema)
	if err != nil {
		return nil, err
	}
	opts := []dataset.Option{
		dataset.WithBatchSize(c.batchSize()),
		dataset.WithDropLast(c.Loader.DropLast),
	}
	if c.Loader.Shuffle {
		opts = append(opts, dataset.WithShuffle(c.Loader.Seed))
	}
	if c.Loader.Prefetch > 0 {
		opts = append(opts, dataset.WithPrefetch(c.Loader.Prefetch))
	}
	if c.Loader.Workers > 0 {
		opts = append(opts, dataset.WithWorkers(c.Loader.Workers))
	}
	if wf != nil && len(wf.Ops()) > 0 {
		opts = append(opts, dataset.WithTransforms(wf))
	}
	return dataset.NewLoader(src, assembler, opts...)
}

// BuildInferenceService 构建推理客户端；未配置 serving 时返回 NOT_FOUND
func (c *Config) BuildInferenceService() (core.InferenceService, error) {
	if c.Serving == nil {
		return nil, core.Errorf(core.ModuleConfig, core.ErrorCodeNotFound, "serving is not configured")
	}
	return service.NewInferenceService(c.Serving)
}

// TensorOptions 返回 serving 段对应的张量编码选项
func (c *Config) TensorOptions() service.TensorOptions {
	opts := service.TensorOptions{}
	if c.Serving != nil {
		opts.Ragged = c.Serving.Ragged
	}
	return opts
}
