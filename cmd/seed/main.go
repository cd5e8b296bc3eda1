// Seed tool: inserts sample posts through the same gateway the server uses.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"

	"gorm.io/gorm"

	"github.com/alexadark/workshop-cityjs/internal/config"
	"github.com/alexadark/workshop-cityjs/internal/db"
	"github.com/alexadark/workshop-cityjs/internal/models"
)

var titles = []string{
	"Hello World!",
	"Getting started with Go",
	"Why slugs matter",
	"Publishing from a dashboard",
	"Rich text, plain storage",
}

func main() {
	var numPosts int
	var publish bool
	flag.IntVar(&numPosts, "posts", len(titles), "number of posts to insert")
	flag.BoolVar(&publish, "publish", true, "publish the inserted posts")
	flag.Parse()

	config.LoadDotEnv()
	cfg, err := config.Load()
	if err != nil {
		log.Fatal(err)
	}
	database, err := db.Open(cfg.Database)
	if err != nil {
		log.Fatal(err)
	}
	defer db.Close(database)

	n, err := seed(context.Background(), database, numPosts, publish)
	if err != nil {
		log.Fatalf("seed failed after %d posts: %v", n, err)
	}
	log.Printf("seeded %d posts (published=%t)", n, publish)
}

// seed creates numPosts sample posts and returns how many were stored.
func seed(ctx context.Context, database *gorm.DB, numPosts int, publish bool) (int, error) {
	for i := 0; i < numPosts; i++ {
		title := sampleTitle(i)
		content := fmt.Sprintf("<p>Sample content for <strong>%s</strong>.</p>", title)
		p, err := models.CreatePost(ctx, database, title, content)
		if err != nil {
			return i, err
		}
		if publish {
			if _, err := models.TogglePublish(ctx, database, p.ID); err != nil {
				return i, err
			}
		}
	}
	return numPosts, nil
}

func sampleTitle(i int) string {
	title := titles[i%len(titles)]
	if i >= len(titles) {
		title = fmt.Sprintf("%s (%d)", title, i/len(titles)+1)
	}
	return title
}
