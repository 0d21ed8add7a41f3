package resource

import (
	"encoding/json"
	"testing"

	"github.com/pkg/errors"
	"go.viam.com/test"
	goutils "go.viam.com/utils"

	"go.viam.com/simsensors/utils"
)

var sensorAPI = APINamespace(ResourceNamespaceRDK, ResourceTypeComponent, "sensor")

func TestNames(t *testing.T) {
	name := NewName(sensorAPI, "ft_sensor")
	test.That(t, name.String(), test.ShouldEqual, "rdk:component:sensor/ft_sensor")
	test.That(t, name.Validate(), test.ShouldBeNil)
	test.That(t, name.AsNamed().Name(), test.ShouldResemble, name)
	test.That(t, sensorAPI.IsComponent(), test.ShouldBeTrue)

	test.That(t, NewName(sensorAPI, "ft sensor").Validate(), test.ShouldNotBeNil)
	test.That(t, NewName(sensorAPI, "").Validate(), test.ShouldNotBeNil)
	test.That(t, NewName(API{Namespace: "rdk", Type: "component"}, "x").Validate(), test.ShouldNotBeNil)
	test.That(t, NewName(APINamespace("a:b", ResourceTypeComponent, "sensor"), "x").Validate(), test.ShouldNotBeNil)
}

func TestModels(t *testing.T) {
	model, err := NewModelFromString("gazebo_ros_ft_sensor")
	test.That(t, err, test.ShouldBeNil)
	test.That(t, model, test.ShouldResemble, DefaultModelFamily.WithModel("gazebo_ros_ft_sensor"))
	test.That(t, model.String(), test.ShouldEqual, "rdk:builtin:gazebo_ros_ft_sensor")

	model, err = NewModelFromString("acme:sim:ft-sensor")
	test.That(t, err, test.ShouldBeNil)
	test.That(t, model, test.ShouldResemble, NewModel("acme", "sim", "ft-sensor"))
	test.That(t, model.Validate(), test.ShouldBeNil)

	_, err = NewModelFromString("acme:ft")
	test.That(t, err, test.ShouldNotBeNil)
	test.That(t, Model{}.Validate(), test.ShouldNotBeNil)

	var fromJSON Model
	test.That(t, json.Unmarshal([]byte(`"acme:sim:ft"`), &fromJSON), test.ShouldBeNil)
	test.That(t, fromJSON, test.ShouldResemble, NewModel("acme", "sim", "ft"))
	out, err := json.Marshal(fromJSON)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, string(out), test.ShouldEqual, `"acme:sim:ft"`)
	test.That(t, json.Unmarshal([]byte(`"not a model"`), &fromJSON), test.ShouldNotBeNil)
}

type testConfig struct {
	JointName  string   `json:"jointName"`
	UpdateRate *float64 `json:"updateRate"`
}

func (c *testConfig) Validate(path string) error {
	if c.JointName == "" {
		return goutils.NewConfigValidationFieldRequiredError(path, "jointName")
	}
	return nil
}

func TestTransformAttributeMap(t *testing.T) {
	conf, err := TransformAttributeMap[*testConfig](utils.AttributeMap{"jointName": "wrist", "updateRate": "100.0"})
	test.That(t, err, test.ShouldBeNil)
	test.That(t, conf.JointName, test.ShouldEqual, "wrist")
	test.That(t, *conf.UpdateRate, test.ShouldEqual, 100.0)

	conf, err = TransformAttributeMap[*testConfig](utils.AttributeMap{"jointName": "wrist"})
	test.That(t, err, test.ShouldBeNil)
	test.That(t, conf.UpdateRate, test.ShouldBeNil)

	_, err = TransformAttributeMap[*testConfig](utils.AttributeMap{"updateRate": []string{"fast"}})
	test.That(t, err, test.ShouldNotBeNil)

	valConf, err := TransformAttributeMap[testConfig](utils.AttributeMap{"jointName": "elbow"})
	test.That(t, err, test.ShouldBeNil)
	test.That(t, valConf.JointName, test.ShouldEqual, "elbow")
}

func TestConfigValidate(t *testing.T) {
	conf := Config{API: sensorAPI, Model: DefaultModelFamily.WithModel("gazebo_ros_ft_sensor")}
	err := conf.Validate("models.0.plugins.0")
	test.That(t, GetFieldFromFieldRequiredError(err), test.ShouldEqual, "name")
	test.That(t, err.Error(), test.ShouldContainSubstring, "models.0.plugins.0")

	conf.Name = "ft_sensor"
	test.That(t, conf.Validate("models.0.plugins.0"), test.ShouldBeNil)
	test.That(t, conf.ResourceName(), test.ShouldResemble, NewName(sensorAPI, "ft_sensor"))

	conf.API = API{}
	test.That(t, conf.Validate("models.0.plugins.0"), test.ShouldBeNil)
	conf.API = sensorAPI

	conf.Name = "ft sensor"
	err = conf.Validate("models.0.plugins.0")
	test.That(t, err, test.ShouldNotBeNil)
	test.That(t, err.Error(), test.ShouldContainSubstring, "must start with a letter or number")
	conf.Name = "ft_sensor"

	conf.Model = Model{}
	err = conf.Validate("models.0.plugins.0")
	test.That(t, err, test.ShouldNotBeNil)
	test.That(t, GetFieldFromFieldRequiredError(err), test.ShouldEqual, "")

	conf.ConvertedAttributes = &testConfig{JointName: "wrist"}
	native, err := NativeConfig[*testConfig](conf)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, native.JointName, test.ShouldEqual, "wrist")
	_, err = NativeConfig[*NoNativeConfig](conf)
	test.That(t, err, test.ShouldNotBeNil)
}

func TestGetFieldFromFieldRequiredError(t *testing.T) {
	err := goutils.NewConfigValidationFieldRequiredError("models.0.plugins.1", "jointName")
	test.That(t, err.Error(), test.ShouldEqual, `error validating "models.0.plugins.1": "jointName" is required`)
	test.That(t, GetFieldFromFieldRequiredError(err), test.ShouldEqual, "jointName")
	test.That(t, GetFieldFromFieldRequiredError(errors.Wrap(err, "cannot load world")), test.ShouldEqual, "jointName")

	err = goutils.NewConfigValidationError("world", errors.New("step_size must be positive"))
	test.That(t, GetFieldFromFieldRequiredError(err), test.ShouldEqual, "")
	test.That(t, GetFieldFromFieldRequiredError(errors.New("name is required")), test.ShouldEqual, "")
	test.That(t, GetFieldFromFieldRequiredError(nil), test.ShouldEqual, "")
}
