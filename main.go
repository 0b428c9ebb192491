// github-activity-charts fetches a GitHub user's repositories and contribution
// activity, aggregates them into language and daily-activity tables, and
// renders the tables as SVG badges.
package main

import (
	"github.com/naka-gawa/github-activity-charts/cmd"
)

func main() {
	cmd.Execute()
}
