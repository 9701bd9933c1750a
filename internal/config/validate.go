package config

import (
	"errors"
	"fmt"
	"net/url"
	"strings"

	"github.com/go-playground/validator/v10"
)

var validate = validator.New()

func init() {
	validate.RegisterStructValidation(validateEngine, EngineConfig{})
}

// validateEngine checks the fields each engine kind depends on.
func validateEngine(sl validator.StructLevel) {
	e := sl.Current().Interface().(EngineConfig)
	switch e.Kind {
	case "llama":
		if strings.TrimSpace(e.Model) == "" {
			sl.ReportError(e.Model, "Model", "model", "required_for_llama", "")
		}
	case "llama-server":
		u, err := url.Parse(e.ServerURL)
		if err != nil || u.Scheme == "" || u.Host == "" {
			sl.ReportError(e.ServerURL, "ServerURL", "server_url", "url", "")
		}
	}
}

// Validate reports every invalid field in one error.
func (c Config) Validate() error {
	err := validate.Struct(c)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err
	}
	msgs := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		msgs = append(msgs, fmt.Sprintf("%s: failed %q (value %v)", fe.Namespace(), fe.Tag(), fe.Value()))
	}
	return fmt.Errorf("invalid config: %s", strings.Join(msgs, "; "))
}
