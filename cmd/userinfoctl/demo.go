package main

import "github.com/goliatone/go-userinfo/components/userinfo"

func demoResults() userinfo.ResultsModel {
	return userinfo.ResultsModel{
		Fields: append([]string(nil), userinfo.Columns...),
		Rows: []userinfo.ResultRow{
			{"500 Market St, San Francisco", "Buttercup Games", "+1 415 555 0100", "ada@buttercup.test", "Ada Lovelace", "/img/ada.png", "alovelace", "+1 415 555 0101", "Analyst"},
			{"500 Market St, San Francisco", "Buttercup Games", "+1 415 555 0100", "grace@buttercup.test", "Grace Hopper", "/img/grace.png", "ghopper", "+1 415 555 0102", "Administrator"},
		},
	}
}
