package main

import (
	"log"
	"net/http"
	"os"

	"github.com/gorilla/mux"
	"github.com/joho/godotenv"

	"confique.app/backend/database"
	"confique.app/backend/routes"
	"confique.app/backend/services"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using environment")
	}

	services.InitMediaStore()

	db, err := database.ConnectDB()
	if err != nil {
		log.Fatal("DB connection failed:", err)
	}
	defer db.Close()

	if err := database.InitSchema(db); err != nil {
		log.Fatal("Schema init failed:", err)
	}

	router := mux.NewRouter()
	routes.CreatePostRoutes(db, router)
	routes.CreateUserRoutes(db, router)
	routes.CreateNotificationRoutes(db, router)

	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}

	log.Printf("Confique backend listening on :%s", port)
	log.Fatal(http.ListenAndServe(":"+port, router))
}
