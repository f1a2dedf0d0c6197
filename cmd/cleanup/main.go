package main

import (
	"log"

	"github.com/joho/godotenv"

	"confique.app/backend/database"
	"confique.app/backend/handlers"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("Cleanup: no .env file found, using environment")
	}

	db, err := database.ConnectDB()
	if err != nil {
		log.Fatal("Cleanup: DB connection failed:", err)
	}
	defer db.Close()

	log.Println("Running notification cleanup job")
	deleted, err := handlers.RunNotificationCleanup(db)
	if err != nil {
		log.Fatal("Cleanup: failed:", err)
	}
	log.Printf("Cleanup finished, %d notifications removed", deleted)
}
