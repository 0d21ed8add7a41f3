package plugin

import (
	"context"
	"testing"

	"github.com/pkg/errors"
	"go.viam.com/test"
	goutils "go.viam.com/utils"

	"go.viam.com/simsensors/logging"
	"go.viam.com/simsensors/resource"
	"go.viam.com/simsensors/utils"
)

var (
	testAPI   = resource.APINamespace(resource.ResourceNamespaceRDK, resource.ResourceTypeComponent, "sensor")
	testModel = resource.DefaultModelFamily.WithModel("test_plugin")
)

type testConfig struct {
	Topic string  `json:"topicName"`
	Rate  float64 `json:"updateRate"`
}

func (c *testConfig) Validate(path string) error {
	if c.Topic == "" {
		return goutils.NewConfigValidationFieldRequiredError(path, "topicName")
	}
	return nil
}

type testPlugin struct {
	resource.Named
	resource.TriviallyCloseable
	conf *testConfig
	host Host
}

func registerTestPlugin(t *testing.T) {
	t.Helper()
	Register(testAPI, testModel, Registration[*testPlugin, *testConfig]{
		Constructor: func(ctx context.Context, host Host, conf resource.Config, logger logging.Logger) (*testPlugin, error) {
			native, err := resource.NativeConfig[*testConfig](conf)
			if err != nil {
				return nil, err
			}
			if err := native.Validate(conf.Name); err != nil {
				return nil, err
			}
			return &testPlugin{Named: conf.ResourceName().AsNamed(), conf: native, host: host}, nil
		},
	})
	t.Cleanup(func() { Deregister(testModel) })
}

func TestRegistry(t *testing.T) {
	_, ok := Lookup(testModel)
	test.That(t, ok, test.ShouldBeFalse)

	registerTestPlugin(t)
	reg, ok := Lookup(testModel)
	test.That(t, ok, test.ShouldBeTrue)
	test.That(t, reg.API(), test.ShouldResemble, testAPI)
	test.That(t, reg.AttributeMapConverter, test.ShouldNotBeNil)
	test.That(t, RegisteredModels(), test.ShouldContain, testModel)

	t.Run("duplicate", func(t *testing.T) {
		test.That(t, func() {
			Register(testAPI, testModel, Registration[*testPlugin, *testConfig]{
				Constructor: func(context.Context, Host, resource.Config, logging.Logger) (*testPlugin, error) {
					return nil, errors.New("unused")
				},
			})
		}, test.ShouldPanic)
	})

	t.Run("nil constructor", func(t *testing.T) {
		other := resource.DefaultModelFamily.WithModel("no_constructor")
		test.That(t, func() {
			Register(testAPI, other, Registration[*testPlugin, *testConfig]{})
		}, test.ShouldPanic)
		_, ok := Lookup(other)
		test.That(t, ok, test.ShouldBeFalse)
	})

	t.Run("no native config", func(t *testing.T) {
		other := resource.DefaultModelFamily.WithModel("no_config")
		Register(testAPI, other, Registration[*testPlugin, resource.NoNativeConfig]{
			Constructor: func(ctx context.Context, host Host, conf resource.Config, logger logging.Logger) (*testPlugin, error) {
				return &testPlugin{Named: conf.ResourceName().AsNamed()}, nil
			},
		})
		defer Deregister(other)
		reg, ok := Lookup(other)
		test.That(t, ok, test.ShouldBeTrue)
		test.That(t, reg.AttributeMapConverter, test.ShouldBeNil)
	})

	Deregister(testModel)
	_, ok = Lookup(testModel)
	test.That(t, ok, test.ShouldBeFalse)
}

func TestLoad(t *testing.T) {
	registerTestPlugin(t)
	logger := logging.NewTestLogger(t)
	ctx := context.Background()

	t.Run("converts attributes", func(t *testing.T) {
		conf := resource.Config{
			Name:       "ft",
			Model:      testModel,
			Attributes: utils.AttributeMap{"topicName": "ft_sensor", "updateRate": "100.0"},
		}
		p, err := Load(ctx, Host{}, conf, logger)
		test.That(t, err, test.ShouldBeNil)
		tp, ok := p.(*testPlugin)
		test.That(t, ok, test.ShouldBeTrue)
		test.That(t, tp.conf, test.ShouldResemble, &testConfig{Topic: "ft_sensor", Rate: 100})
		test.That(t, p.Name().String(), test.ShouldEqual, "rdk:component:sensor/ft")
		test.That(t, p.Close(ctx), test.ShouldBeNil)
	})

	t.Run("constructor error", func(t *testing.T) {
		conf := resource.Config{Name: "ft", Model: testModel}
		_, err := Load(ctx, Host{}, conf, logger)
		test.That(t, err, test.ShouldNotBeNil)
		test.That(t, resource.GetFieldFromFieldRequiredError(err), test.ShouldEqual, "topicName")
	})

	t.Run("bad attributes", func(t *testing.T) {
		conf := resource.Config{
			Name:       "ft",
			Model:      testModel,
			Attributes: utils.AttributeMap{"topicName": "ft_sensor", "updateRate": "fast"},
		}
		_, err := Load(ctx, Host{}, conf, logger)
		test.That(t, err, test.ShouldNotBeNil)
		test.That(t, err.Error(), test.ShouldContainSubstring, `error converting attributes of "ft"`)
	})

	t.Run("unknown model", func(t *testing.T) {
		conf := resource.Config{Name: "ft", Model: resource.DefaultModelFamily.WithModel("nope")}
		_, err := Load(ctx, Host{}, conf, logger)
		test.That(t, err, test.ShouldNotBeNil)
		test.That(t, err.Error(), test.ShouldContainSubstring, "no plugin registered")
	})
}
