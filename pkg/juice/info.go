// Copyright (c) 2017 Intel Corporation
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//      http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package juice

import (
	"encoding/gob"
	"encoding/json"
	"fmt"

	"github.com/Marie-Donnie/juice/pkg/deployment"
	"github.com/kr/pretty"
	"github.com/pkg/errors"
	"gopkg.in/yaml.v2"
)

// InfoFormats are the formats accepted by Info. Empty pretty prints the record.
var InfoFormats = []string{"", "json", "yaml", "gob", "pickle"}

// Info writes the environment record to Out in format.
func (j *Juice) Info(format string) error {
	record, err := j.load()
	if err != nil {
		return err
	}

	switch format {
	case "":
		_, err = pretty.Fprintf(j.Out, "%# v\n", record)
	case "json":
		var data []byte
		data, err = json.MarshalIndent(record, "", "  ")
		if err == nil {
			_, err = fmt.Fprintln(j.Out, string(data))
		}
	case "yaml":
		var data []byte
		data, err = yaml.Marshal(record)
		if err == nil {
			_, err = j.Out.Write(data)
		}
	case "gob", "pickle":
		err = gob.NewEncoder(j.Out).Encode(record)
	default:
		return deployment.NewConfigError("--out doesn't support %s output format, use json, yaml or gob", format)
	}
	return errors.Wrap(err, "cannot write environment")
}
