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

package keystone

import (
	"encoding/json"
	"net"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"

	"github.com/gophercloud/gophercloud"
	. "github.com/smartystreets/goconvey/convey"
)

// identity answers v3 token requests, accepting password only.
func identity(password string, requests *[]map[string]interface{}) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != "/v3/auth/tokens" {
			http.NotFound(w, r)
			return
		}
		body := map[string]interface{}{}
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		*requests = append(*requests, body)

		auth := body["auth"].(map[string]interface{})
		user := auth["identity"].(map[string]interface{})["password"].(map[string]interface{})["user"].(map[string]interface{})
		if user["password"] != password {
			w.WriteHeader(http.StatusUnauthorized)
			w.Write([]byte(`{"error": {"code": 401, "message": "The request you have made requires authentication."}}`))
			return
		}
		w.Header().Set("X-Subject-Token", "0ddba11")
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusCreated)
		w.Write([]byte(`{"token": {"methods": ["password"], "expires_at": "2030-01-01T00:00:00.000000Z", "catalog": []}}`))
	}
}

func TestChecker(t *testing.T) {
	Convey("With a keystone answering on a local port", t, func() {
		var requests []map[string]interface{}
		server := httptest.NewServer(identity("demo", &requests))
		defer server.Close()

		host, port, err := net.SplitHostPort(server.Listener.Addr().String())
		So(err, ShouldBeNil)
		portNumber, err := strconv.Atoi(port)
		So(err, ShouldBeNil)

		config := Config{
			Port: portNumber,
			Auth: gophercloud.AuthOptions{Username: "admin", Password: "demo", TenantName: "admin", DomainName: "Default"},
		}

		Convey("The endpoint is the identity v3 API of the host", func() {
			So(NewChecker(config).Endpoint("graphene-1.nancy.grid5000.fr"), ShouldEqual, "http://graphene-1.nancy.grid5000.fr:"+port+"/v3")
		})

		Convey("Valid credentials get a token", func() {
			So(NewChecker(config).Check(host), ShouldBeNil)
			So(requests, ShouldHaveLength, 1)
		})

		Convey("Wrong credentials are reported with the endpoint", func() {
			config.Auth.Password = "wrong"
			err := NewChecker(config).Check(host)
			So(err, ShouldNotBeNil)
			So(err.Error(), ShouldContainSubstring, server.URL+"/v3")
		})
	})

	Convey("An unreachable keystone is an error", t, func() {
		listener, err := net.Listen("tcp", "127.0.0.1:0")
		So(err, ShouldBeNil)
		port := listener.Addr().(*net.TCPAddr).Port
		So(listener.Close(), ShouldBeNil)

		err = NewChecker(Config{Port: port, Auth: gophercloud.AuthOptions{Username: "admin", Password: "demo", DomainName: "Default"}}).Check("127.0.0.1")
		So(err, ShouldNotBeNil)
	})

	Convey("Defaults come from the flags", t, func() {
		config := DefaultConfig()
		So(config.Port, ShouldEqual, 5000)
		So(config.Auth.Username, ShouldEqual, "admin")
		So(config.Auth.DomainName, ShouldEqual, "Default")
	})
}
